package cmd

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/vault"
)

// RecordFlags are the field flags shared by add and edit
type RecordFlags struct {
	fs *flag.FlagSet

	group    string
	title    string
	user     string
	url      string
	notes    string
	totp     string
	ask      bool
	generate bool
}

// NewRecordFlags registers the record field flags on fs
func NewRecordFlags(fs *flag.FlagSet) *RecordFlags {
	f := &RecordFlags{fs: fs}
	fs.StringVar(&f.group, "group", "", "Dot-separated group path")
	fs.StringVar(&f.title, "title", "", "Record title")
	fs.StringVar(&f.user, "user", "", "User name")
	fs.StringVar(&f.url, "url", "", "URL")
	fs.StringVar(&f.notes, "notes", "", "Notes")
	fs.StringVar(&f.totp, "totp", "", "Base32 two-factor secret (empty string removes it)")
	fs.BoolVar(&f.ask, "ask-password", false, "Prompt for the password")
	fs.BoolVar(&f.generate, "generate", false, "Generate a random password")
	return f
}

// Apply copies the flags that were given on the command line into r
func (f *RecordFlags) Apply(r *vault.Record) error {
	if f.ask && f.generate {
		return errors.New("--ask-password and --generate are mutually exclusive")
	}

	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "group":
			r.Group = f.group
		case "title":
			r.Title = f.title
		case "user":
			r.Username = f.user
		case "url":
			r.URL = f.url
		case "notes":
			r.Notes = f.notes
		case "totp":
			r.TOTPKey, err = decodeTOTPSecret(f.totp)
		}
	})
	if err != nil {
		return err
	}

	switch {
	case f.generate:
		r.Password = GeneratePassword()
	case f.ask:
		password, err := ReadPasswordConfirm("Enter record password: ")
		if err != nil {
			return err
		}
		r.Password = string(password)
		crypto.ClearBytes(password)
	}
	return nil
}

// GeneratePassword returns a random 26-character base32 password
func GeneratePassword() string {
	return rand.Text()
}

// decodeTOTPSecret accepts the base32 form authenticator apps show,
// with or without spaces and padding
func decodeTOTPSecret(s string) ([]byte, error) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, nil
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid two-factor secret: %w", err)
	}
	return key, nil
}
