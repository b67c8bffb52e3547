package cmd

import (
	"context"
	"fmt"
	"time"
)

const totpPeriod = 30

// TOTP prints the current one-time code of a record
func TOTP(ctx context.Context, env *Env, path, ref string) {
	s := OpenVault(ctx, env, path)
	defer s.Close()

	r := FindRecordOrExit(s, ref)
	now := time.Now()
	code, err := s.TOTP(r.UUID, now)
	if err != nil {
		HandleError(err)
	}

	fmt.Println(code)
	fmt.Printf("valid for %ds\n", totpPeriod-now.Unix()%totpPeriod)
}
