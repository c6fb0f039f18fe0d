package db

import (
	"context"
	"fmt"
	"time"
)

// EvidenceDocument records one generated evidence PDF for a receipt.
type EvidenceDocument struct {
	ID        int       `json:"id"`
	ReceiptID string    `json:"receipt_id"`
	RunID     string    `json:"run_id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEvidenceDocument inserts a document record and fills in its ID.
func (db *DB) CreateEvidenceDocument(ctx context.Context, doc *EvidenceDocument) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO evidence_documents (receipt_id, run_id, filename)
		VALUES (?, ?, ?)`,
		doc.ReceiptID, doc.RunID, doc.Filename,
	)
	if err != nil {
		return fmt.Errorf("failed to create evidence document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	doc.ID = int(id)
	return nil
}

// RecentEvidenceDocuments returns the most recent limit document records for
// a receipt, newest first.
func (db *DB) RecentEvidenceDocuments(ctx context.Context, receiptID string, limit int) ([]EvidenceDocument, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, receipt_id, run_id, filename, created_at
		FROM evidence_documents
		WHERE receipt_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		receiptID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence documents: %w", err)
	}
	defer rows.Close()

	var docs []EvidenceDocument
	for rows.Next() {
		var doc EvidenceDocument
		if err := rows.Scan(&doc.ID, &doc.ReceiptID, &doc.RunID, &doc.Filename, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
