package keosd

import "errors"

var (
	// ErrNodeURLRequired is returned when no chain node is configured.
	ErrNodeURLRequired = errors.New("node url is required")

	// ErrWalletURLRequired is returned when no wallet daemon is
	// configured.
	ErrWalletURLRequired = errors.New("wallet url is required")

	// ErrWalletNameRequired is returned when no wallet name is configured.
	ErrWalletNameRequired = errors.New("wallet name is required")

	// ErrPrompterRequired is returned when neither a fixed account nor a
	// prompter is configured.
	ErrPrompterRequired = errors.New("prompter is required")

	// ErrAccountNotFound is returned when the login account does not
	// exist on chain.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPermissionNotFound is returned when the account has no such
	// permission.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrLoginCancelled is returned when the user aborts the login.
	ErrLoginCancelled = errors.New("login cancelled")
)
