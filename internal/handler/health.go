package handler

import (
	"context"
	"net/http"
	"time"

	"heladeria/internal/realtime"
	"heladeria/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type healthResponse struct {
	OK    bool   `json:"ok"`
	DB    string `json:"db"`
	Redis string `json:"redis"`
	// Geocoding backlog; informative, never fails the check
	Geocodificacion struct {
		Pendientes int64 `json:"pendientes"`
		DLQ        int64 `json:"dlq"`
	} `json:"geocodificacion"`
	Realtime map[string]int `json:"realtime"`
}

// Health answers 503 when Postgres or Redis is unreachable. Connection
// strings and driver errors are never included.
func Health(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		resp := healthResponse{DB: "connected", Redis: "connected"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			resp.DB = "error"
		}
		if rdb.Ping(ctx).Err() != nil {
			resp.Redis = "error"
		} else {
			resp.Geocodificacion.Pendientes, _ = rdb.LLen(ctx, worker.QueueGeocodificacion).Result()
			resp.Geocodificacion.DLQ, _ = worker.DLQLength(ctx, rdb, worker.QueueGeocodificacion)
		}
		resp.Realtime = map[string]int{
			realtime.GrupoPedidos: hub.Members(realtime.GrupoPedidos),
			realtime.GrupoCadetes: hub.Members(realtime.GrupoCadetes),
		}
		resp.OK = resp.DB == "connected" && resp.Redis == "connected"

		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
