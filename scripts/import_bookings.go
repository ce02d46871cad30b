package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gasthof/internal/database"
	"gasthof/internal/models"
	"gasthof/internal/status"

	"gopkg.in/yaml.v3"
)

type bookingImport struct {
	ID         string `yaml:"id"`
	PropertyID string `yaml:"property_id"`
	RoomName   string `yaml:"room_name"`
	GuestName  string `yaml:"guest_name"`
	StartDate  string `yaml:"start_date"`
	EndDate    string `yaml:"end_date"`
	Status     string `yaml:"status"`
	Comment    string `yaml:"comment"`
}

type importFile struct {
	Bookings []bookingImport `yaml:"bookings"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		importPath = flag.String("bookings", "configs/bookings.yaml", "path to bookings.yaml")
		dbPath     = flag.String("db", "./data/gasthof.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*importPath)
	if err != nil {
		return fmt.Errorf("read bookings: %w", err)
	}
	var file importFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse bookings: %w", err)
	}
	if len(file.Bookings) == 0 {
		return fmt.Errorf("no bookings in yaml")
	}

	db, err := database.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	skipped := 0
	for _, raw := range file.Bookings {
		if raw.PropertyID == "" {
			continue
		}
		if raw.ID != "" {
			if _, err = db.GetBooking(ctx, raw.ID); err == nil {
				skipped++
				continue
			} else if !errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("get %s: %w", raw.ID, err)
			}
		}

		booking, err := toBooking(raw)
		if err != nil {
			return fmt.Errorf("booking %s: %w", raw.ID, err)
		}
		if err = db.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("create %s: %w", booking.ID, err)
		}
		created++
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}

func toBooking(raw bookingImport) (*models.Booking, error) {
	start, err := time.Parse(models.DateOnly, raw.StartDate)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", raw.StartDate, err)
	}
	end, err := time.Parse(models.DateOnly, raw.EndDate)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", raw.EndDate, err)
	}

	st := raw.Status
	if st == "" {
		st = string(status.Reserved)
	}
	style := status.StyleFor(status.Normalize(status.BookingStatus(st)))

	return &models.Booking{
		ID:         raw.ID,
		PropertyID: raw.PropertyID,
		RoomName:   raw.RoomName,
		GuestName:  raw.GuestName,
		StartDate:  start,
		EndDate:    end,
		Status:     st,
		Color:      style.Fill,
		Comment:    raw.Comment,
	}, nil
}
