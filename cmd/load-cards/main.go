package main

import (
	"flag"
	"os"

	"story-cards/internal/config"
	"story-cards/internal/db"

	"github.com/pterm/pterm"
)

func main() {
	filePath := flag.String("file", "cards.csv", "path to a filename,image_url[,id] csv")
	migrateFirst := flag.Bool("migrate", false, "run auto-migrations before loading")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		pterm.Warning.Printfln("failed to load .env: %v", err)
	}
	cfg := config.Load()

	spinner, _ := pterm.DefaultSpinner.Start("connecting to database")
	conn, err := db.Open(cfg)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	if *migrateFirst {
		if err := db.Migrate(conn); err != nil {
			spinner.Fail("auto-migrate: " + err.Error())
			os.Exit(1)
		}
	}

	spinner.UpdateText("loading " + *filePath)
	loaded, err := db.LoadCardCatalog(conn, *filePath)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	spinner.Success(pterm.Sprintf("loaded %d cards", loaded))

	cards, err := db.ActiveCards(conn)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"active cards", "minimum for 3 players", "minimum for 8 players"},
		{
			pterm.Sprint(len(cards)),
			pterm.Sprint(3*cfg.HandSize + cfg.DeckReserve),
			pterm.Sprint(8*cfg.HandSize + cfg.DeckReserve),
		},
	}).Render()
}
