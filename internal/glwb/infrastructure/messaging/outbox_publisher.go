package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxMessage 待投递的领域事件
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primary_key"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	Key       string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "glwb_outbox_messages"
}

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxEventPublisher 实现 messagequeue.EventPublisher 接口，使用
// Outbox 模式：事件先与业务数据同库落盘，再由中继异步投递。
type OutboxEventPublisher struct {
	db *gorm.DB
}

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db}
}

// Publish 实现 messagequeue.EventPublisher，写入默认连接
func (p *OutboxEventPublisher) Publish(_ context.Context, topic string, key string, event any) error {
	return p.publishEvent(p.db, topic, key, event)
}

// PublishInTx 实现 messagequeue.EventPublisher，事件记录与业务数据
// 落在同一事务，事务回滚时事件不会外泄
func (p *OutboxEventPublisher) PublishInTx(_ context.Context, tx any, topic string, key string, event any) error {
	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		gormTx = p.db
	}
	return p.publishEvent(gormTx, topic, key, event)
}

// publishEvent 通用事件发布方法
func (p *OutboxEventPublisher) publishEvent(db *gorm.DB, eventType, key string, event any) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := OutboxMessage{
		ID:        uuid.NewString(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		Key:       key,
		Payload:   string(eventData),
		Status:    statusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return db.Create(&message).Error
}

// MessageSender 外部消息通道，由 Kafka 生产者实现
type MessageSender interface {
	SendRaw(ctx context.Context, topic, key string, value []byte) error
}

// ProcessOutboxMessages 投递一批待处理消息，返回投递条数。
// 事件类型即 Kafka topic，投递顺序按落库时间。
func (p *OutboxEventPublisher) ProcessOutboxMessages(ctx context.Context, sender MessageSender, batchSize int) (int, error) {
	var messages []OutboxMessage
	if err := p.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at asc").
		Limit(batchSize).
		Find(&messages).Error; err != nil {
		return 0, err
	}

	sent := 0
	for _, message := range messages {
		if err := sender.SendRaw(ctx, message.EventType, message.Key, []byte(message.Payload)); err != nil {
			return sent, err
		}
		if err := p.db.WithContext(ctx).Model(&message).Update("status", statusSent).Error; err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// CleanupProcessedMessages 清理已投递的消息
func (p *OutboxEventPublisher) CleanupProcessedMessages(ctx context.Context, before time.Time) error {
	return p.db.WithContext(ctx).Where("status = ? AND updated_at < ?", statusSent, before).Delete(&OutboxMessage{}).Error
}
