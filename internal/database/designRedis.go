package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/terrep263/snapbrand/internal/entity"
)

type designRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewDesignRepository(redisClient *redis.Client) (DesignRepository, error) {
	ctx := context.Background()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &designRepository{
		client: redisClient,
		ctx:    ctx,
	}, nil
}

func (r *designRepository) Save(design *entity.Design) error {
	data, err := json.Marshal(design)
	if err != nil {
		return err
	}

	if err := r.client.Set(r.ctx, designKey(design.ID), data, 0).Err(); err != nil {
		return err
	}
	return r.client.SAdd(r.ctx, "designs:all", design.ID).Err()
}

func (r *designRepository) FindByID(id string) (*entity.Design, error) {
	data, err := r.client.Get(r.ctx, designKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", entity.ErrDesignNotFound, id)
		}
		return nil, err
	}

	var design entity.Design
	if err := json.Unmarshal(data, &design); err != nil {
		return nil, err
	}
	return &design, nil
}

func (r *designRepository) Delete(id string) error {
	removed, err := r.client.Del(r.ctx, designKey(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", entity.ErrDesignNotFound, id)
	}
	return r.client.SRem(r.ctx, "designs:all", id).Err()
}

func (r *designRepository) List() ([]entity.Design, error) {
	ids, err := r.client.SMembers(r.ctx, "designs:all").Result()
	if err != nil {
		return nil, err
	}

	designs := make([]entity.Design, 0, len(ids))
	for _, id := range ids {
		design, err := r.FindByID(id)
		if err != nil {
			continue
		}
		designs = append(designs, *design)
	}
	return designs, nil
}

func designKey(id string) string {
	return fmt.Sprintf("design:%s", id)
}
