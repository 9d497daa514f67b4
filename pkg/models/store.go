package models

import (
	"fmt"

	"github.com/flaboy/aira-checkout/pkg/database"
)

// RecordStore 支付记录持久化接口，编排器通过它保证每次提交恰好落库一次
type RecordStore interface {
	Save(record *PaymentRecord) error
}

// Store gorm实现
type Store struct{}

// NewStore 创建支付记录存储
func NewStore() *Store {
	return &Store{}
}

// Save 持久化支付记录
func (s *Store) Save(record *PaymentRecord) error {
	db := database.Database()
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}
	return db.Save(record).Error
}

// FindByHashID 按对外HashID查询支付记录
func (s *Store) FindByHashID(hashID string) (*PaymentRecord, error) {
	id, err := DecodePaymentHashID(hashID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment hash ID: %w", err)
	}

	var record PaymentRecord
	err = database.Database().Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, fmt.Errorf("payment record not found: %w", err)
	}
	return &record, nil
}
