package routes

import (
	"time"

	"car-rental-storefront/models"
	"car-rental-storefront/storage"
	"car-rental-storefront/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GET /api/admin/activity
func AdminActivity(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 50)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}

	if storage.DB == nil {
		utils.JSONPage(ctx, []models.AuditLog{}, page, perPage, 0)
		return
	}

	q := storage.DB.Model(&models.AuditLog{})
	if rt := ctx.URLParamTrim("resource_type"); rt != "" {
		q = q.Where("resource_type = ?", rt)
	}
	if action := ctx.URLParamTrim("action"); action != "" {
		q = q.Where("action = ?", action)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var logs []models.AuditLog
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.JSONPage(ctx, logs, page, perPage, total)
}

// GET /api/admin/stats
func AdminStats(ctx iris.Context) {
	if storage.DB == nil {
		ctx.JSON(iris.Map{"data": iris.Map{}, "meta": iris.Map{}, "links": iris.Map{}})
		return
	}
	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)

	var bookings7, bookings30, carChanges7 int64
	storage.DB.Model(&models.AuditLog{}).Where("resource_type = ? AND created_at >= ?", "booking", since7).Count(&bookings7)
	storage.DB.Model(&models.AuditLog{}).Where("resource_type = ? AND created_at >= ?", "booking", since30).Count(&bookings30)
	storage.DB.Model(&models.AuditLog{}).Where("resource_type = ? AND created_at >= ?", "car", since7).Count(&carChanges7)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"new_bookings_7d":  bookings7,
			"new_bookings_30d": bookings30,
			"car_changes_7d":   carChanges7,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}
