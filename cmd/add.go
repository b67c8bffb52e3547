package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/pwvault/internal/vault"
)

// Add creates a record from the given flags
func Add(ctx context.Context, env *Env, path string, flags *RecordFlags) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	var r vault.Record
	if err := flags.Apply(&r); err != nil {
		HandleError(err)
	}
	if r.Title == "" {
		HandleError(errors.New("add requires --title"))
	}

	added, err := s.AddRecord(r)
	if err != nil {
		HandleError(err)
	}
	SaveVault(ctx, env, s)

	fmt.Printf("added: %s [%s]\n", added.Path(), added.UUID)
	if flags.generate {
		fmt.Printf("password: %s\n", added.Password)
	}
}

// Edit changes the fields of an existing record that were given as flags
func Edit(ctx context.Context, env *Env, path, ref string, flags *RecordFlags) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	r := FindRecordOrExit(s, ref)
	if err := flags.Apply(&r); err != nil {
		HandleError(err)
	}

	updated, err := s.UpdateRecord(r)
	if err != nil {
		HandleError(err)
	}
	SaveVault(ctx, env, s)

	fmt.Printf("updated: %s [%s]\n", updated.Path(), updated.UUID)
	if flags.generate {
		fmt.Printf("password: %s\n", updated.Password)
	}
}

// Dup copies a record under a new uuid
func Dup(ctx context.Context, env *Env, path, ref string) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	r := FindRecordOrExit(s, ref)
	dup, err := s.DuplicateRecord(r.UUID)
	if err != nil {
		HandleError(err)
	}
	SaveVault(ctx, env, s)

	fmt.Printf("added: %s [%s]\n", dup.Path(), dup.UUID)
}
