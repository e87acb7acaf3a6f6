package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/raffle-system/models"
)

func TestRegisterCreatesUserWithWallet(t *testing.T) {
	userRepo := &fakeUserRepo{}
	walletRepo := &fakeWalletRepo{}
	svc := NewAuthService(userRepo, walletRepo)

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.COM ",
		Password:  "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Error("password stored without hashing")
	}
	if len(walletRepo.createdWallets) != 1 || walletRepo.createdWallets[0] != user.ID {
		t.Error("wallet not created for the new user")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{}, &fakeWalletRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
		Password:  "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := &fakeUserRepo{}
	svc := NewAuthService(userRepo, &fakeWalletRepo{})

	input := RegisterInput{FirstName: "Ada", Email: "ada@example.com", Password: "correct-horse"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("err = %v, want ErrUserEmailConflict", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	userRepo := &fakeUserRepo{}
	svc := NewAuthService(userRepo, &fakeWalletRepo{})

	if _, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		Email:     "ada@example.com",
		Password:  "correct-horse",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Login(context.Background(), LoginInput{Email: "Ada@Example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("logged in wrong user: %q", user.Email)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "correct-horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}
