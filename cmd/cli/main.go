package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sibincbaby/vouchzy/pkg/adapters/repository/sqlite"
	"github.com/sibincbaby/vouchzy/pkg/config"
	"github.com/sibincbaby/vouchzy/pkg/core/codec"
	"github.com/sibincbaby/vouchzy/pkg/core/domain"
	"github.com/sibincbaby/vouchzy/pkg/core/expiry"
)

const usage = "expected 'export', 'import' or 'decode' subcommands"

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		doExport(openRepo())
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(openRepo(), *importFile)
	case "decode":
		if len(os.Args) < 3 {
			fmt.Println("usage: decode <share-url>")
			os.Exit(1)
		}
		doDecode(os.Args[2])
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openRepo() *sqlite.SQLiteRepository {
	cfg := config.Load()
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	return repo
}

func doExport(repo *sqlite.SQLiteRepository) {
	vouchers, err := repo.Dump(context.Background())
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(vouchers); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

func doImport(repo *sqlite.SQLiteRepository, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var vouchers []domain.Voucher
	if err := json.NewDecoder(file).Decode(&vouchers); err != nil {
		log.Fatalf("Failed to decode file: %v", err)
	}

	ctx := context.Background()
	imported := 0
	for i := range vouchers {
		v := &vouchers[i]
		// Imports bypass rate limits: the quota row keyed per source file
		// only records that a migration happened.
		q := domain.Quota{Count: i + 1, Date: v.CreatedAt.Format(domain.DateLayout), LastCreatedAt: v.CreatedAt}
		if err := repo.Create(ctx, v, "import:"+filename, q); err != nil {
			log.Printf("Skipping %s: %v", v.ID, err)
			continue
		}
		imported++
	}
	fmt.Printf("Imported %d of %d vouchers\n", imported, len(vouchers))
}

// doDecode inspects a shareable link offline: prints the embedded voucher and
// its expiry judgment by the local clock.
func doDecode(rawURL string) {
	v, err := codec.DecodeURL(rawURL)
	if err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}

	if v.ExpiryDate != "" {
		oracle := expiry.NewOracle(nil)
		status := oracle.Status(context.Background(), v.ExpiryDate)
		if status.Expired {
			fmt.Println("Status: Expired")
		} else {
			fmt.Printf("Status: %s\n", status.Remaining)
		}
	}
}
