package database

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var db *gorm.DB

// 等待自动迁移的模型，由各model包在init()中注册
var autoMigrateModels []interface{}

// RegisterAutoMigrateModels 注册需要自动迁移的模型
func RegisterAutoMigrateModels(models ...interface{}) {
	autoMigrateModels = append(autoMigrateModels, models...)
}

// Open 打开数据库连接并执行自动迁移
func Open(dsn string) error {
	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	if len(autoMigrateModels) > 0 {
		if err := conn.AutoMigrate(autoMigrateModels...); err != nil {
			return err
		}
	}
	db = conn
	return nil
}

// SetDatabase 由宿主系统注入已有连接时使用
func SetDatabase(conn *gorm.DB) {
	db = conn
}

// Database 获取数据库句柄
func Database() *gorm.DB {
	return db
}
