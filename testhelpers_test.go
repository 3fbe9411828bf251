//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/internal/repository"
	"github.com/hartley-studio/service-billing/pkg/database"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// billingStack holds wired-up billing service components backed by the mock
// processor adapter.
type billingStack struct {
	Payments     *application.PaymentService
	Refunds      *application.RefundService
	GiftCards    *application.GiftCardService
	Promotions   *application.PromotionService
	PaymentLinks *application.PaymentLinkService
	SyncLog      *application.SyncLogService
	Cleanup      func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a
// connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_billing",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgConfig := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_billing",
		SSLMode:  "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(pgConfig.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Bring the schema up the way a non-dev deployment does.
	migrateLogger, err := zap.NewDevelopment()
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(pgConfig.DatabaseURL(), "migrations", migrateLogger),
		"failed to apply migrations")

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBillingEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupBillingStack wires the full billing service stack on real Postgres and
// Kafka, with the mock processor adapter standing in for the vendor.
func setupBillingStack(t *testing.T, db *gorm.DB, brokers []string) *billingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	giftCardRepo := repository.NewGormGiftCardRepository(db)
	promotionRepo := repository.NewGormPromotionRepository(db)
	syncLogRepo := repository.NewGormSyncLogRepository(db)

	processor := adapter.NewMockProcessorAdapter(logger)
	producer := kafka.NewProducer(brokers, logger)

	return &billingStack{
		Payments:     application.NewPaymentService(bookingRepo, paymentRepo, processor, producer, logger),
		Refunds:      application.NewRefundService(paymentRepo, syncLogRepo, processor, producer, "USD", logger),
		GiftCards:    application.NewGiftCardService(giftCardRepo, bookingRepo, producer, "GC", logger),
		Promotions:   application.NewPromotionService(promotionRepo, bookingRepo, producer, logger),
		PaymentLinks: application.NewPaymentLinkService(bookingRepo, syncLogRepo, processor, producer, logger),
		SyncLog:      application.NewSyncLogService(syncLogRepo),
		Cleanup:      func() { _ = producer.Close() },
	}
}

// seedBookingRow inserts a confirmed booking for testing.
func seedBookingRow(t *testing.T, db *gorm.DB, clientID uuid.UUID, totalCents int64) uuid.UUID {
	t.Helper()
	bookingID := uuid.New()
	now := time.Now().UTC()
	model := repository.BookingModel{
		ID:              bookingID,
		ClientID:        clientID,
		ServiceID:       uuid.New(),
		ServiceName:     "Full Day Session",
		ServiceCategory: "photography",
		ScheduledAt:     now.Add(72 * time.Hour),
		Status:          "confirmed",
		TotalCents:      totalCents,
		DepositCents:    totalCents / 2,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed booking")
	return bookingID
}

// seedPaymentRow inserts a settled card payment for testing.
func seedPaymentRow(t *testing.T, db *gorm.DB, bookingID, clientID uuid.UUID, amountCents int64, processorPaymentID string) uuid.UUID {
	t.Helper()
	paymentID := uuid.New()
	now := time.Now().UTC()
	model := repository.PaymentModel{
		ID:                 paymentID,
		BookingID:          bookingID,
		ClientID:           clientID,
		AmountCents:        amountCents,
		Method:             "processor_card",
		Status:             "paid",
		ProcessorPaymentID: processorPaymentID,
		CreatedAt:          now,
		PaidAt:             &now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed payment")
	return paymentID
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with
// "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	time.Sleep(2 * time.Second)
}
