package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing land registry database schema...")

	landRecordsTableSQL := `
	CREATE TABLE IF NOT EXISTS land_records(
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		survey_number VARCHAR(64) NOT NULL,
		owner_name VARCHAR(255) NOT NULL,
		owner_address CHAR(42) NOT NULL,
		owner_phone VARCHAR(32) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		area DOUBLE NOT NULL,
		value DOUBLE NOT NULL,
		status ENUM('Pending', 'Verified', 'Rejected', 'PendingTransfer') NOT NULL DEFAULT 'Pending',
		deed_image VARCHAR(255) NOT NULL DEFAULT 'default-deed.jpg',
		description TEXT,
		token_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
		transfer_new_owner CHAR(42),
		transfer_requested_by CHAR(42),
		transfer_reason VARCHAR(255),
		transfer_requested_at TIMESTAMP NULL,
		transfer_status ENUM('Pending', 'Completed', 'Rejected'),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE INDEX survey_number_index (survey_number),
		INDEX owner_address_index (owner_address),
		INDEX status_index (status)
	)`

	if _, err := db.Exec(landRecordsTableSQL); err != nil {
		return fmt.Errorf("failed to create land_records table: %w", err)
	}
	log.Info("Land_records table created/verified")

	// Append-only custody trail; rows are never updated or deleted.
	previousOwnersTableSQL := `
	CREATE TABLE IF NOT EXISTS previous_owners(
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		record_id BIGINT UNSIGNED NOT NULL,
		address CHAR(42) NOT NULL,
		transfer_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		transaction_hash VARCHAR(80) NOT NULL,
		PRIMARY KEY (id),
		INDEX record_id_index (record_id)
	)`

	if _, err := db.Exec(previousOwnersTableSQL); err != nil {
		return fmt.Errorf("failed to create previous_owners table: %w", err)
	}
	log.Info("Previous_owners table created/verified")

	transferHistoryTableSQL := `
	CREATE TABLE IF NOT EXISTS transfer_history(
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		record_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(32) NOT NULL,
		note VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX record_id_index (record_id)
	)`

	if _, err := db.Exec(transferHistoryTableSQL); err != nil {
		return fmt.Errorf("failed to create transfer_history table: %w", err)
	}
	log.Info("Transfer_history table created/verified")

	walletHoldingsTableSQL := `
	CREATE TABLE IF NOT EXISTS wallet_holdings(
		address CHAR(42) NOT NULL,
		record_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE INDEX address_record_index (address, record_id),
		INDEX address_index (address)
	)`

	if _, err := db.Exec(walletHoldingsTableSQL); err != nil {
		return fmt.Errorf("failed to create wallet_holdings table: %w", err)
	}
	log.Info("Wallet_holdings table created/verified")

	adminNotificationsTableSQL := `
	CREATE TABLE IF NOT EXISTS admin_notifications(
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		type VARCHAR(32) NOT NULL,
		record_id BIGINT UNSIGNED NOT NULL,
		survey_number VARCHAR(64) NOT NULL,
		from_owner CHAR(42) NOT NULL,
		to_owner CHAR(42) NOT NULL,
		message VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		` + "`read`" + ` BOOL NOT NULL DEFAULT false,
		PRIMARY KEY (id),
		INDEX created_at_index (created_at)
	)`

	if _, err := db.Exec(adminNotificationsTableSQL); err != nil {
		return fmt.Errorf("failed to create admin_notifications table: %w", err)
	}
	log.Info("Admin_notifications table created/verified")

	log.Info("Land registry database schema initialization completed")
	return nil
}
