package ingestion

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trading-journal/internal/domain"
	"trading-journal/pkg/metrics"
)

// BatchInserter is the slice of the trade store the loader needs.
type BatchInserter interface {
	InsertMany(ctx context.Context, trades []domain.Trade) (int64, error)
}

type BulkLoader struct {
	store     BatchInserter
	batchSize int
}

func NewBulkLoader(store BatchInserter, batchSize int) *BulkLoader {
	return &BulkLoader{
		store:     store,
		batchSize: batchSize,
	}
}

// LoadTrades stamps ownership on the parsed trades and writes them in
// concurrent batches. Records keep an incoming id when they carry one, so a
// re-import of an exported journal fails on duplicates instead of doubling
// the history.
func (l *BulkLoader) LoadTrades(ctx context.Context, userID string, trades []domain.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for i := range trades {
		trades[i].UserID = userID
		if trades[i].ID == "" {
			trades[i].ID = primitive.NewObjectID().Hex()
		}
		trades[i].CreatedAt = now
		trades[i].UpdatedAt = now
	}

	chunks := l.splitIntoChunks(trades)

	results := make(chan int64, len(chunks))
	errors := make(chan error, len(chunks))

	for _, chunk := range chunks {
		go func(chunk []domain.Trade) {
			count, err := l.store.InsertMany(ctx, chunk)
			if err != nil {
				errors <- err
				return
			}
			results <- count
		}(chunk)
	}

	var totalCount int64
	for i := 0; i < len(chunks); i++ {
		select {
		case count := <-results:
			totalCount += count
		case err := <-errors:
			return totalCount, err
		case <-ctx.Done():
			return totalCount, ctx.Err()
		}
	}

	metrics.TradesProcessed.WithLabelValues("imported").Add(float64(totalCount))
	return totalCount, nil
}

func (l *BulkLoader) splitIntoChunks(trades []domain.Trade) [][]domain.Trade {
	var chunks [][]domain.Trade

	for i := 0; i < len(trades); i += l.batchSize {
		end := i + l.batchSize
		if end > len(trades) {
			end = len(trades)
		}
		chunks = append(chunks, trades[i:end])
	}

	return chunks
}
