// Command session signs a shopper in through a running gateway and prints the
// resulting customer, which makes it a quick end-to-end check of /api/auth.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/service/customer"
)

func main() {
	var (
		gatewayURL string
		email      string
		password   string
		firstName  string
		lastName   string
		register   bool
		logout     bool
		timeout    time.Duration
	)
	flag.StringVar(&gatewayURL, "gateway", "", "Gateway base URL (defaults to STOREFRONT_GATEWAY_URL)")
	flag.StringVar(&email, "email", "", "Customer email")
	flag.StringVar(&password, "password", "", "Customer password")
	flag.StringVar(&firstName, "first-name", "", "First name, used with -register")
	flag.StringVar(&lastName, "last-name", "", "Last name, used with -register")
	flag.BoolVar(&register, "register", false, "Create the account before signing in")
	flag.BoolVar(&logout, "logout", false, "Sign out again after printing the customer")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "session", Format: "console"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}
	if gatewayURL == "" {
		cfg, err := config.Load()
		if err != nil {
			logg.Error(ctx, "failed to load config", err)
			os.Exit(1)
		}
		gatewayURL = cfg.Gateway.URL
	}
	if email == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := customer.New(gatewayURL, logg)
	if err != nil {
		logg.Error(ctx, "init session", err)
		os.Exit(1)
	}

	var res customer.Result
	if register {
		res = sess.Register(ctx, customer.RegisterInput{
			Email:     email,
			Password:  password,
			FirstName: firstName,
			LastName:  lastName,
		})
	} else {
		res = sess.Login(ctx, email, password)
	}
	if !res.Success {
		fmt.Fprintln(os.Stderr, res.Message)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(sess.Customer(), "", "  ")
	if err != nil {
		logg.Error(ctx, "encode customer", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if logout {
		sess.Logout(ctx)
		logg.Info(ctx, "signed out")
	}
}
