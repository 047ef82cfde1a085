package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "proovd/internal/platform/redis"
	"proovd/internal/verification/models"
	"proovd/pkg/domain"
	"proovd/pkg/platform/sentinel"
)

// Redis stores each record as a JSON document under a per-website key.
// Records never expire; a website keeps its token until the row is deleted.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(websiteID domain.WebsiteID) string {
	return "verification:website:" + websiteID.String()
}

func (r *Redis) Get(ctx context.Context, websiteID domain.WebsiteID) (*models.VerificationRecord, error) {
	raw, err := r.client.Get(ctx, redisKey(websiteID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("verification record for website %s: %w", websiteID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verification record: %w", err)
	}

	var record models.VerificationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode verification record for website %s: %w", websiteID, err)
	}
	return &record, nil
}

func (r *Redis) Save(ctx context.Context, record *models.VerificationRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification record: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(record.WebsiteID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, websiteID domain.WebsiteID) error {
	if err := r.client.Del(ctx, redisKey(websiteID)).Err(); err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Health(ctx)
}
