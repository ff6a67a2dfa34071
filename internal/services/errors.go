package services

import "errors"

// Domain errors raised by the services. Handlers translate these with
// errors.Is; anything not listed here is an infrastructure failure and is
// wrapped with context instead.
var (
	// Not-found errors also cover entities that exist but belong to another
	// user: ownership is part of every lookup predicate.
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrDuplicateWallet   = errors.New("wallet already exists")
	ErrDuplicateCategory = errors.New("category already exists")

	ErrWalletHasDependents   = errors.New("wallet is referenced by invoices")
	ErrCategoryHasDependents = errors.New("category is referenced by invoices")

	ErrInvalidInvoiceConfiguration = errors.New("invalid invoice configuration")
	ErrInvoiceCreationFailed       = errors.New("invoice creation failed")

	ErrCannotUpdateInstallment        = errors.New("cannot update an installment, update the root invoice")
	ErrCannotUpdateProcessedRecurring = errors.New("cannot update a recurring invoice that already advanced")
	ErrCannotDeleteInstallment        = errors.New("cannot delete an installment, delete the root invoice")

	ErrCategoryTypeMismatch = errors.New("category type does not match invoice type")

	ErrAlreadyPaid = errors.New("invoice is already paid")
	ErrNotPaid     = errors.New("invoice is not paid")

	ErrNoResults          = errors.New("no results found")
	ErrInvalidReportRange = errors.New("report requires a from and to date")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidActivation  = errors.New("invalid or expired activation token")
	ErrAccountNotActive   = errors.New("account is not active")
)
