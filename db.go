package main

import (
	"log"
	"os"
	"strings"

	"github.com/interleads/travelagency-system-sub001/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Profile{}); err != nil {
			log.Printf("migration warning (profiles): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.Supplier{}); err != nil {
			log.Printf("migration warning (suppliers): %v", err)
		}
		if err := db.AutoMigrate(&models.MilesProgram{}); err != nil {
			log.Printf("migration warning (miles_programs): %v", err)
		}
		if err := db.AutoMigrate(&models.MilesBatch{}); err != nil {
			log.Printf("migration warning (miles_inventory): %v", err)
		}
		if err := db.AutoMigrate(&models.MilesTransaction{}); err != nil {
			log.Printf("migration warning (miles_transactions): %v", err)
		}
		if err := db.AutoMigrate(&models.FinancialTransaction{}); err != nil {
			log.Printf("migration warning (transactions): %v", err)
		}
		if err := db.AutoMigrate(&models.Sale{}); err != nil {
			log.Printf("migration warning (sales): %v", err)
		}
		if err := db.AutoMigrate(&models.SaleProduct{}); err != nil {
			log.Printf("migration warning (sale_products): %v", err)
		}
		if err := db.AutoMigrate(&models.SaleInstallment{}); err != nil {
			log.Printf("migration warning (sale_installments): %v", err)
		}
	}

	seedDB()
}

func seedRoles() {
	roles := []models.Role{
		{Name: models.RoleAdministrador, Description: "full back-office access"},
		{Name: models.RoleVendedor, Description: "sales access"},
	}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()
	seedPrograms()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("email = ?", "admin@agencia.local").Count(&count)
	if count == 0 {
		// find administrator role id
		var role models.Role
		if err := db.Where("name = ?", models.RoleAdministrador).First(&role).Error; err != nil {
			log.Printf("failed to find administrador role: %v", err)
		}
		// Seed admin user
		rid := role.ID
		admin := models.User{
			Email:  "admin@agencia.local",
			RoleID: &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: email=admin@agencia.local, password=admin123")
	}
	// Ensure admin has a one-to-one profile
	var admin models.User
	if err := db.Where("email = ?", "admin@agencia.local").First(&admin).Error; err != nil {
		log.Printf("failed to find admin user after seeding: %v", err)
		return
	}
	var pcount int64
	db.Model(&models.Profile{}).Where("user_id = ?", admin.ID).Count(&pcount)
	if pcount == 0 {
		profile := models.Profile{UserID: admin.ID, Name: "Administrador", Email: admin.Email}
		if err := db.Create(&profile).Error; err != nil {
			log.Printf("failed to create profile for admin: %v", err)
		} else {
			log.Println("Seeded admin profile for user id:", admin.ID)
		}
	}
}

// seedPrograms ensures the loyalty-program reference rows exist.
func seedPrograms() {
	for _, name := range []string{"Latam Pass", "Smiles", "TudoAzul"} {
		var cnt int64
		db.Model(&models.MilesProgram{}).Where("name = ?", name).Count(&cnt)
		if cnt == 0 {
			db.Create(&models.MilesProgram{Name: name})
		}
	}
}
