// examhall-import fills the question bank from the Open Trivia Database.
// It is an operator tool, run while the server is down or against a copy
// of the database; the server itself only reads the bank.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"examhall/internal/config"
	"examhall/internal/exam"
	"examhall/internal/opentdb"
	"examhall/internal/store"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DBPath, "SQLite database file")
	amount := flag.Int("amount", 10, "questions to fetch")
	difficulty := flag.String("difficulty", "", "restrict to one difficulty: easy, medium, or hard")
	timeout := flag.Duration("timeout", 15*time.Second, "HTTP timeout")
	flag.Parse()

	if *difficulty != "" {
		if _, ok := exam.DifficultyID(*difficulty); !ok {
			fmt.Fprintf(os.Stderr, "examhall-import: unknown difficulty %q\n", *difficulty)
			os.Exit(1)
		}
	}

	if err := run(*dbPath, *amount, *difficulty, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, "examhall-import:", err)
		os.Exit(1)
	}
}

func run(dbPath string, amount int, difficulty string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := opentdb.NewClient(&http.Client{Timeout: timeout})
	raw, err := client.FetchQuestions(ctx, amount, difficulty)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}

	drafts := opentdb.Drafts(raw)
	if len(drafts) == 0 {
		return fmt.Errorf("opentdb returned no usable questions")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	for _, draft := range drafts {
		if _, err := st.AddQuestion(ctx, draft); err != nil {
			return fmt.Errorf("insert %q: %w", draft.Text, err)
		}
	}

	fmt.Printf("imported %d questions into %s\n", len(drafts), dbPath)
	return nil
}
