package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"story-cards/internal/logging"

	"go.uber.org/zap"
)

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := flag.String("name", "", "migration name (lower_snake_case)")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	logger := logging.Must(true)
	defer func() { _ = logger.Sync() }()

	if !migrationName.MatchString(*name) {
		logger.Fatal("migration name must be lower_snake_case", zap.String("name", *name))
	}
	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		logger.Fatal("create migrations dir", zap.Error(err))
	}
	if err := writeNew(upPath, "BEGIN;\n\nCOMMIT;\n"); err != nil {
		logger.Fatal("create up migration", zap.Error(err))
	}
	if err := writeNew(downPath, "BEGIN;\n\nCOMMIT;\n"); err != nil {
		logger.Fatal("create down migration", zap.Error(err))
	}
	logger.Info("migration created", zap.String("up", upPath), zap.String("down", downPath))
}

func writeNew(path, content string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
