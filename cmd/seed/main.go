// Command seed fills the database with a demo clinic roster so a freshly
// migrated instance can take calls immediately.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var departments = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Orthopedics",
	"Pediatrics",
}

var slotGrid = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	clinicPhone := strings.TrimSpace(os.Getenv("CLINIC_PHONE"))
	if clinicPhone == "" {
		clinicPhone = "+15550123456"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedClinic(ctx, pool, clinicPhone); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seed complete")
}

func seedClinic(ctx context.Context, pool *pgxpool.Pool, phone string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	clinicID := uuid.New()
	clinicName := gofakeit.City() + " Medical Center"
	if _, err := tx.Exec(ctx, `
		INSERT INTO clinics (id, name, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO NOTHING
	`, clinicID, clinicName, phone); err != nil {
		return err
	}

	// If the clinic already existed, reuse its id.
	if err := tx.QueryRow(ctx,
		`SELECT id FROM clinics WHERE phone = $1`, phone,
	).Scan(&clinicID); err != nil {
		return err
	}

	log.Printf("seeding clinic %q (%s)", clinicName, phone)

	for i, deptName := range departments {
		deptID := uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO departments (id, clinic_id, name, description)
			VALUES ($1, $2, $3, $4)
		`, deptID, clinicID, deptName, gofakeit.Sentence(8)); err != nil {
			return err
		}

		doctors := 2
		if i == 0 {
			doctors = 1
		}
		for j := 0; j < doctors; j++ {
			if err := seedDoctor(ctx, tx, clinicID, deptID, deptName); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func seedDoctor(ctx context.Context, tx pgx.Tx, clinicID, deptID uuid.UUID, specialty string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO doctors
			(id, clinic_id, department_id, name, specialization, available_days, available_times)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), clinicID, deptID, gofakeit.Name(), specialty, weekdays, slotGrid)
	return err
}
