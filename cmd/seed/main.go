package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/pkg/config"
	"github.com/ksndmc/flow-api/pkg/database"
)

type seedUser struct {
	ID           string
	Name         string
	Email        string
	Password     string
	Role         models.Role
	EmployeeType models.EmployeeType
	Position     string
	JoinDate     string
	Birthday     string
}

type seedHoliday struct {
	Date string
	Name string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := seedUsers(ctx, db); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedHolidays(ctx, db); err != nil {
		log.Fatalf("seed holidays: %v", err)
	}
	log.Println("seed complete")
}

func seedUsers(ctx context.Context, db *sqlx.DB) error {
	users := []seedUser{
		{ID: "1", Name: "System Admin", Email: "admin@ksndmcflow.com", Password: "admin123", Role: models.RoleAdmin, EmployeeType: models.EmployeeRegular, Position: "Operations Manager", JoinDate: "2025-01-01", Birthday: "1985-05-15"},
		{ID: "2", Name: "Jane Doe", Email: "jane.doe@ksndmcflow.com", Password: "pass123", Role: models.RoleEmployee, EmployeeType: models.EmployeeRegular, Position: "Software Engineer", JoinDate: "2025-06-15", Birthday: time.Now().Format(models.DateOnly)},
		{ID: "3", Name: "John Smith", Email: "john.smith@ksndmcflow.com", Password: "pass123", Role: models.RoleEmployee, EmployeeType: models.EmployeeRegular, Position: "Product Designer", JoinDate: "2025-03-10", Birthday: "1992-11-20"},
		{ID: "4", Name: "Alice Wong", Email: "alice.w@ksndmcflow.com", Password: "pass123", Role: models.RoleEmployee, EmployeeType: models.EmployeeOutsourced, Position: "HR Specialist", JoinDate: "2025-08-20", Birthday: "1995-02-14"},
	}

	const insertUser = `INSERT INTO users (id, name, email, password_hash, role, employee_type, position, join_date, birthday, created_at, updated_at)
VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (id) DO NOTHING`
	const insertBalance = `INSERT INTO leave_balances (user_id, al, ml, cl, rh, comoff, used, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (user_id) DO NOTHING`

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, insertUser, u.ID, u.Name, u.Email, string(hash), u.Role, u.EmployeeType, u.Position, u.JoinDate, u.Birthday); err != nil {
			return err
		}
		balance := models.DefaultLeaveBalance(u.ID)
		if _, err := db.ExecContext(ctx, insertBalance, balance.UserID, balance.AL, balance.ML, balance.CL, balance.RH, balance.ComOff, balance.Used); err != nil {
			return err
		}
		log.Printf("seeded user %s (%s)", u.Name, u.Email)
	}
	return nil
}

func seedHolidays(ctx context.Context, db *sqlx.DB) error {
	holidays := []seedHoliday{
		{Date: "2026-01-01", Name: "New Year's Day"},
		{Date: "2026-01-14", Name: "Makara Sankranti"},
		{Date: "2026-01-26", Name: "Republic Day"},
		{Date: "2026-02-15", Name: "Maha Shivaratri"},
		{Date: "2026-03-19", Name: "Ugadi"},
		{Date: "2026-04-01", Name: "Ambedkar Jayanti"},
		{Date: "2026-04-05", Name: "Good Friday"},
		{Date: "2026-05-01", Name: "May Day"},
		{Date: "2026-08-15", Name: "Independence Day"},
		{Date: "2026-08-27", Name: "Ganesh Chaturthi"},
		{Date: "2026-10-02", Name: "Gandhi Jayanti"},
		{Date: "2026-10-21", Name: "Ayudha Pooja"},
		{Date: "2026-10-22", Name: "Vijayadashami"},
		{Date: "2026-11-01", Name: "Kannada Rajyotsava"},
		{Date: "2026-11-08", Name: "Deepavali"},
		{Date: "2026-12-25", Name: "Christmas"},
	}

	const insertHoliday = `INSERT INTO holidays (date, name, type)
VALUES ($1, $2, 'PUBLIC')
ON CONFLICT (date) DO NOTHING`

	for _, h := range holidays {
		if _, err := db.ExecContext(ctx, insertHoliday, h.Date, h.Name); err != nil {
			return err
		}
	}
	log.Printf("seeded %d holidays", len(holidays))
	return nil
}
