package utils

import (
	"encoding/json"
	"net"
	"strings"

	"car-rental-storefront/models"
	"car-rental-storefront/storage"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
)

// Audit records an admin or booking action. It is a no-op when no database is configured.
func Audit(ctx iris.Context, action, resourceType string, resourceID uint, before interface{}, after interface{}) {
	if storage.DB == nil {
		return
	}
	entry := models.AuditLog{
		Actor:        actor(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Before:       toJSON(before),
		After:        toJSON(after),
		IPAddress:    clientIP(ctx),
	}
	if err := storage.DB.Create(&entry).Error; err != nil {
		golog.Warnf("❌ audit %s %s/%d: %v", action, resourceType, resourceID, err)
	}
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// actor is the operator name the admin console sends, if any.
func actor(ctx iris.Context) string {
	if a := strings.TrimSpace(ctx.GetHeader("X-Admin-User")); a != "" {
		return a
	}
	return "anonymous"
}

func clientIP(ctx iris.Context) string {
	if ip := ctx.GetHeader("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	ip, _, err := net.SplitHostPort(ctx.RemoteAddr())
	if err != nil {
		return ctx.RemoteAddr()
	}
	return ip
}
