package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "X-Idempotency-Key"
	idempotencyKeyPrefix = "idempotency:"
	maxIdempotencyKeyLen = 128
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"requestHash"`
	ResponseCode int               `json:"responseCode,omitempty"`
	ResponseBody string            `json:"responseBody,omitempty"`
}

// IdempotencyStore is the subset of a Redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type IdempotencyConfig struct {
	Store IdempotencyStore
	// TTL of a completed record.
	TTL time.Duration
	// ProcessingTTL bounds how long a crashed request can block its key.
	ProcessingTTL time.Duration
	Log           *zap.Logger
}

// Idempotency replays the stored response when a request is retried with the
// same X-Idempotency-Key. Requests without the header pass through, and so
// does everything when Redis is unavailable. Keys are scoped to the user, so
// it must run after AuthMiddleware.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.ProcessingTTL == 0 {
		cfg.ProcessingTTL = time.Minute
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			abortWithError(c, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "X-Idempotency-Key is too long")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_BODY", "could not read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		userID, _ := GetUserID(c)
		redisKey := fmt.Sprintf("%s%d:%s", idempotencyKeyPrefix, userID, key)
		hash := requestHash(c, body)
		ctx := c.Request.Context()

		record := &idempotencyRecord{Status: statusProcessing, RequestHash: hash}
		data, _ := json.Marshal(record)
		acquired, err := cfg.Store.SetNX(ctx, redisKey, string(data), cfg.ProcessingTTL).Result()
		if err != nil {
			cfg.Log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !acquired {
			existing, err := loadRecord(ctx, cfg.Store, redisKey)
			if err != nil {
				if errors.Is(err, redis.Nil) {
					abortWithError(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is being processed")
					return
				}
				cfg.Log.Warn("idempotency record unreadable", zap.Error(err))
				c.Next()
				return
			}
			switch {
			case existing.RequestHash != hash:
				abortWithError(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "idempotency key already used with a different request")
			case existing.Status == statusProcessing:
				abortWithError(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is being processed")
			default:
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
				c.Abort()
			}
			return
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw

		c.Next()

		// server errors are not cached so the client can retry
		if rw.Status() >= http.StatusInternalServerError {
			cfg.Store.Del(context.WithoutCancel(ctx), redisKey)
			return
		}

		record.Status = statusCompleted
		record.ResponseCode = rw.Status()
		record.ResponseBody = rw.body.String()
		data, _ = json.Marshal(record)
		if err := cfg.Store.Set(context.WithoutCancel(ctx), redisKey, string(data), cfg.TTL).Err(); err != nil {
			cfg.Log.Warn("saving idempotency record failed", zap.Error(err))
		}
	}
}

func loadRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	raw, err := store.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func requestHash(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
