package db

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type cardRecord struct {
	ID       string
	Filename string
	ImageURL string
}

// LoadCardCatalog reads cards from a CSV (filename,image_url[,id]) and upserts them into the
// cards table keyed by filename. It returns the number of rows read.
func LoadCardCatalog(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := readCards(file)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, record := range records {
		var entry Card
		if err := conn.Where(Card{Filename: record.Filename}).
			Attrs(Card{ID: record.ID}).
			Assign(Card{ImageURL: record.ImageURL, IsActive: true}).
			FirstOrCreate(&entry).Error; err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// ActiveCards returns every playable card ordered by id.
func ActiveCards(conn *gorm.DB) ([]Card, error) {
	if conn == nil {
		return nil, errors.New("db connection is nil")
	}
	var cards []Card
	err := conn.Where("is_active = ?", true).Order("id asc").Find(&cards).Error
	return cards, err
}

func readCards(r io.Reader) ([]cardRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []cardRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		filename := strings.TrimSpace(row[0])
		imageURL := strings.TrimSpace(row[1])
		if filename == "" || imageURL == "" {
			continue
		}
		id := ""
		if len(row) >= 3 {
			id = strings.TrimSpace(row[2])
		}
		if id == "" {
			id = uuid.NewString()
		}
		records = append(records, cardRecord{ID: id, Filename: filename, ImageURL: imageURL})
	}
	return records, nil
}
