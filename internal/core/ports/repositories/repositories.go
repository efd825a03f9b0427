package repositories

// CredentialStore is the durable persistence for users, OAuth links and
// refresh-token records. The session service and the OAuth linker are its
// only writers.
type CredentialStore interface {
	UserRepositoryFacade
	RefreshTokenRepositoryFacade
	OAuthAccountRepositoryFacade
	TransactionManager
}
