package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyAuctions = "auctions"

func auctionKey(address string) string {
	return fmt.Sprintf("auction:%v", address)
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (Store, error) {
	parsedURL, err := url.Parse(redisURL)
	if err != nil {
		return nil, err
	}
	redisPassword, _ := parsedURL.User.Password()
	client := redis.NewClient(&redis.Options{
		Addr:     parsedURL.Host,
		Password: redisPassword,
		DB:       0, // Use default DB.
	})
	return redisStore{client: client}, nil
}

func (rs redisStore) PutAuction(auction Auction) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	auction.Role = RoleInitializer
	auction.Status = initStatus(auction.Status)
	auction.CreatedAt = time.Now()
	auction.UpdatedAt = auction.CreatedAt
	return rs.put(ctx, auction)
}

func (rs redisStore) PutTake(address, signature string, err error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	auction, getErr := rs.get(ctx, address)
	if getErr != nil {
		if !errors.Is(getErr, ErrNotFound) {
			return getErr
		}
		auction = Auction{Address: address, Role: RoleTaker}
		auction.CreatedAt = time.Now()
	}
	auction.UpdatedAt = time.Now()
	auction.TakeSignature = signature
	auction.Status, auction.Error = takeOutcome(err)
	return rs.put(ctx, auction)
}

func (rs redisStore) AuctionByAddress(address string) (Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return rs.get(ctx, address)
}

func (rs redisStore) Auctions(status Status) ([]Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addresses, err := rs.client.SMembers(ctx, keyAuctions).Result()
	if err != nil {
		return nil, err
	}
	auctions := make([]Auction, 0, len(addresses))
	for _, address := range addresses {
		auction, err := rs.get(ctx, address)
		if err != nil {
			return nil, err
		}
		if status == Unknown || auction.Status == status {
			auctions = append(auctions, auction)
		}
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
	return auctions, nil
}

func (rs redisStore) get(ctx context.Context, address string) (Auction, error) {
	data, err := rs.client.Get(ctx, auctionKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Auction{}, fmt.Errorf("%w: %v", ErrNotFound, address)
		}
		return Auction{}, err
	}
	var auction Auction
	if err := json.Unmarshal(data, &auction); err != nil {
		return Auction{}, err
	}
	return auction, nil
}

func (rs redisStore) put(ctx context.Context, auction Auction) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return err
	}
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, auctionKey(auction.Address), data, 0)
		pipe.SAdd(ctx, keyAuctions, auction.Address)
		return nil
	})
	return err
}
