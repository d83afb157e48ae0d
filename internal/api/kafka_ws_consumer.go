package api

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"tailortally/server/internal/services"
	"tailortally/server/internal/utils"
)

// KafkaWSConsumer читает события заказов из Kafka, ведет счетчики в Redis
// и транслирует события на экраны дашборда через WebSocket
type KafkaWSConsumer struct {
	brokers   []string
	topic     string
	groupID   string
	reader    *kafka.Reader
	ctx       context.Context
	cancel    context.CancelFunc
	redisUtil *utils.RedisClient
	processed int64 // Счетчик обработанных событий
}

// NewKafkaWSConsumer создает новый Kafka Consumer для дашборда
func NewKafkaWSConsumer(brokers string, topic string, redisUtil *utils.RedisClient, username, password, caCert string) *KafkaWSConsumer {
	brokerList := ParseKafkaBrokers(brokers)
	ctx, cancel := context.WithCancel(context.Background())

	dialer := CreateKafkaDialer(username, password, caCert)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     "dashboard-ws-group",
		StartOffset: kafka.LastOffset, // Дашборду нужны только свежие события
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
	})

	return &KafkaWSConsumer{
		brokers:   brokerList,
		topic:     topic,
		groupID:   "dashboard-ws-group",
		reader:    reader,
		ctx:       ctx,
		cancel:    cancel,
		redisUtil: redisUtil,
	}
}

// Start запускает чтение из Kafka и отправку в WebSocket
func (kc *KafkaWSConsumer) Start() {
	log.Printf("📡 Kafka WS Consumer запущен: topic=%s, groupID=%s", kc.topic, kc.groupID)

	go func() {
		for {
			select {
			case <-kc.ctx.Done():
				log.Println("🛑 Kafka WS Consumer остановлен")
				return
			default:
				msg, err := kc.reader.ReadMessage(kc.ctx)
				if err != nil {
					if err == context.Canceled {
						return
					}
					log.Printf("⚠️ Kafka WS Consumer ошибка чтения: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}

				kc.handleMessage(msg.Value)
			}
		}
	}()
}

// handleMessage обрабатывает одно событие заказа
func (kc *KafkaWSConsumer) handleMessage(payload []byte) {
	var event services.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("⚠️ Kafka WS Consumer: не удалось распарсить событие: %v", err)
		return
	}

	// Счетчики дня в Redis для быстрых виджетов дашборда
	if kc.redisUtil != nil {
		day := event.Timestamp.UTC().Format("2006-01-02")
		switch event.Type {
		case "order_created":
			if _, err := kc.redisUtil.Increment("events:orders_created:" + day); err != nil {
				log.Printf("⚠️ Ошибка счетчика заказов: %v", err)
			}
			if _, err := kc.redisUtil.IncrByFloat("events:material_ordered:"+day, event.TotalMaterial); err != nil {
				log.Printf("⚠️ Ошибка счетчика материала: %v", err)
			}
		case "delivery_recorded":
			if _, err := kc.redisUtil.Increment("events:deliveries:" + day); err != nil {
				log.Printf("⚠️ Ошибка счетчика сдач: %v", err)
			}
		case "order_completed":
			if _, err := kc.redisUtil.Increment("events:orders_completed:" + day); err != nil {
				log.Printf("⚠️ Ошибка счетчика закрытых заказов: %v", err)
			}
		}
	}

	DashboardHub.BroadcastMessage(payload)

	count := atomic.AddInt64(&kc.processed, 1)
	if count <= 10 {
		log.Printf("📨 Kafka WS Consumer: событие %s заказа %d передано на дашборд", event.Type, event.OrderID)
	}
}

// Stop останавливает consumer
func (kc *KafkaWSConsumer) Stop() {
	kc.cancel()
	if err := kc.reader.Close(); err != nil {
		log.Printf("⚠️ Ошибка закрытия Kafka reader: %v", err)
	}
}
