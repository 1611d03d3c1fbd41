package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feedcore/pkg/logger"
)

// docRecord 文档行，字段整体存 JSON
type docRecord struct {
	Path       string `gorm:"primaryKey;type:varchar(255)"`
	Collection string `gorm:"type:varchar(255);index:idx_doc_collection"`
	Data       string `gorm:"type:text"`
	// Version bumps on every write; conditional updates on it give the
	// optimistic-concurrency fallback for set mutations.
	Version   int64
	CreatedAt time.Time `gorm:"index:idx_doc_collection_created"`
	UpdatedAt time.Time
}

func (docRecord) TableName() string { return "documents" }

const sqlRetryLimit = 5

var errRetryExhausted = errors.New("docstore: concurrent update retries exhausted")

// SQLStore keeps documents in a single relational table. It has no atomic
// set primitive, so membership mutations run as read-modify-write under a
// version-conditional update with bounded retry. Watches poll the
// collection at a fixed interval and deliver only when it changed.
type SQLStore struct {
	db           *gorm.DB
	pollInterval time.Duration
	stamps       stamper
}

func NewSQLStore(db *gorm.DB, pollInterval time.Duration) (*SQLStore, error) {
	if err := db.AutoMigrate(&docRecord{}); err != nil {
		return nil, fmt.Errorf("docstore: migrate: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &SQLStore{db: db, pollInterval: pollInterval, stamps: stamper{now: time.Now}}, nil
}

func (s *SQLStore) Get(ctx context.Context, path string) (Document, error) {
	var rec docRecord
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s: %w", path, err)
	}
	return decodeRecord(&rec)
}

func (s *SQLStore) Create(ctx context.Context, path string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: create %s: %w", path, err)
	}
	now := s.stamps.stamp()
	rec := docRecord{Path: path, Collection: Collection(path), Data: string(data), Version: 1, CreatedAt: now, UpdatedAt: now}
	// 幂等创建：冲突即已存在
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("docstore: create %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLStore) Set(ctx context.Context, path string, fields map[string]any) error {
	err := s.update(ctx, path, true, func(map[string]any) (map[string]any, error) {
		return fields, nil
	})
	if errors.Is(err, ErrNotFound) {
		err = s.Create(ctx, path, fields)
		if errors.Is(err, ErrAlreadyExists) {
			// raced with a concurrent create, overwrite it
			return s.Set(ctx, path, fields)
		}
	}
	return err
}

func (s *SQLStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	return s.update(ctx, path, false, func(current map[string]any) (map[string]any, error) {
		for k, v := range fields {
			current[k] = v
		}
		return current, nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, path string) error {
	if err := s.db.WithContext(ctx).Where("path = ?", path).Delete(&docRecord{}).Error; err != nil {
		return fmt.Errorf("docstore: delete %s: %w", path, err)
	}
	return nil
}

func (s *SQLStore) AddToSet(ctx context.Context, path, field string, members ...string) error {
	return s.update(ctx, path, false, func(current map[string]any) (map[string]any, error) {
		set := documentStrings(current, field)
		for _, m := range members {
			if !containsString(set, m) {
				set = append(set, m)
			}
		}
		current[field] = set
		return current, nil
	})
}

func (s *SQLStore) RemoveFromSet(ctx context.Context, path, field string, members ...string) error {
	return s.update(ctx, path, false, func(current map[string]any) (map[string]any, error) {
		set := documentStrings(current, field)
		kept := make([]string, 0, len(set))
		for _, m := range set {
			if !containsString(members, m) {
				kept = append(kept, m)
			}
		}
		current[field] = kept
		return current, nil
	})
}

func (s *SQLStore) Query(ctx context.Context, q Query) ([]Document, error) {
	var recs []docRecord
	err := s.db.WithContext(ctx).
		Where("collection = ?", q.Collection).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(recs))
	for i := range recs {
		doc, err := decodeRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return applyQuery(docs, q), nil
}

func (s *SQLStore) Watch(ctx context.Context, q Query) (*Subscription, error) {
	out := make(chan []Document, 1)
	done := make(chan struct{})
	sub := &Subscription{C: out}
	sub.cancel = func() { close(done) }

	go func() {
		defer close(out)
		var lastToken string
		deliver := func() {
			token, err := s.changeToken(ctx, q.Collection)
			if err != nil {
				logger.Warn("docstore: watch poll failed",
					zap.String("collection", q.Collection), zap.Error(err))
				return
			}
			if token == lastToken && lastToken != "" {
				return
			}
			snap, err := s.Query(ctx, q)
			if err != nil {
				logger.Warn("docstore: watch query failed",
					zap.String("collection", q.Collection), zap.Error(err))
				return
			}
			lastToken = token
			coalesce(out, snap)
		}
		deliver()
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				deliver()
			}
		}
	}()
	return sub, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// changeToken summarises a collection's state. Version bumps on every
// write, so (count, sum(version)) moves on create, update and delete.
func (s *SQLStore) changeToken(ctx context.Context, collection string) (string, error) {
	var agg struct {
		Count int64
		Sum   int64
	}
	err := s.db.WithContext(ctx).Model(&docRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(version), 0) AS sum").
		Where("collection = ?", collection).
		Scan(&agg).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d", agg.Count, agg.Sum), nil
}

// update applies fn to the decoded fields under an optimistic retry loop.
// replace drops fields fn does not return.
func (s *SQLStore) update(ctx context.Context, path string, replace bool, fn func(map[string]any) (map[string]any, error)) error {
	for attempt := 0; attempt < sqlRetryLimit; attempt++ {
		var rec docRecord
		err := s.db.WithContext(ctx).Where("path = ?", path).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("docstore: update %s: %w", path, err)
		}
		current := map[string]any{}
		if !replace {
			if err := json.Unmarshal([]byte(rec.Data), &current); err != nil {
				return fmt.Errorf("docstore: update %s: %w", path, err)
			}
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("docstore: update %s: %w", path, err)
		}
		res := s.db.WithContext(ctx).Model(&docRecord{}).
			Where("path = ? AND version = ?", path, rec.Version).
			Updates(map[string]any{
				"data":       string(data),
				"version":    rec.Version + 1,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("docstore: update %s: %w", path, res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		// lost the race, reload and retry
	}
	return fmt.Errorf("docstore: update %s: %w", path, errRetryExhausted)
}

func decodeRecord(rec *docRecord) (Document, error) {
	fields := map[string]any{}
	if rec.Data != "" {
		if err := json.Unmarshal([]byte(rec.Data), &fields); err != nil {
			return Document{}, fmt.Errorf("docstore: decode %s: %w", rec.Path, err)
		}
	}
	return Document{Path: rec.Path, Fields: fields, CreatedAt: rec.CreatedAt}, nil
}

func documentStrings(fields map[string]any, key string) []string {
	d := Document{Fields: fields}
	return d.Strings(key)
}

func containsString(list []string, s string) bool {
	for _, m := range list {
		if m == s {
			return true
		}
	}
	return false
}
