package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema is in place
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	if err := EnsureSchema(context.Background(), Conn); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}
}

// EnsureSchema creates all tables, constraints and indexes if missing.
// Every statement is idempotent so it is safe to run on each startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            is_staff BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS profiles (
            user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL CHECK (type IN ('customer', 'business')),
            location TEXT NOT NULL DEFAULT '',
            tel TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            working_hours TEXT NOT NULL DEFAULT '',
            file TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS offers (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            image TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            min_price NUMERIC(10,2) NOT NULL DEFAULT 0,
            min_delivery_time INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_offers_user ON offers(user_id);

        CREATE TABLE IF NOT EXISTS offer_details (
            id UUID PRIMARY KEY,
            offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            revisions INTEGER NOT NULL DEFAULT 0 CHECK (revisions >= -1),
            price NUMERIC(10,2) NOT NULL CHECK (price > 0),
            delivery_time_in_days INTEGER NOT NULL CHECK (delivery_time_in_days >= 1),
            features JSONB NOT NULL DEFAULT '[]',
            offer_type TEXT NOT NULL CHECK (offer_type IN ('basic', 'standard', 'premium')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT offer_details_offer_tier_unique UNIQUE (offer_id, offer_type)
        );
        CREATE INDEX IF NOT EXISTS idx_offer_details_offer ON offer_details(offer_id);

        CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            customer_user UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            business_user UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            revisions INTEGER NOT NULL DEFAULT 0,
            delivery_time_in_days INTEGER NOT NULL DEFAULT 0,
            price NUMERIC(10,2) NOT NULL DEFAULT 0,
            features JSONB NOT NULL DEFAULT '[]',
            offer_type TEXT NOT NULL CHECK (offer_type IN ('basic', 'standard', 'premium')),
            status TEXT NOT NULL DEFAULT 'in_progress'
                CHECK (status IN ('in_progress', 'completed', 'cancelled')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_orders_business_status ON orders(business_user, status);
        CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_user);

        CREATE TABLE IF NOT EXISTS reviews (
            id UUID PRIMARY KEY,
            business_user UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            reviewer UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            description TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT reviews_business_reviewer_unique UNIQUE (business_user, reviewer)
        );
        CREATE INDEX IF NOT EXISTS idx_reviews_business ON reviews(business_user);
        CREATE INDEX IF NOT EXISTS idx_reviews_reviewer ON reviews(reviewer);
    `)
	return err
}
