package domain

type ctxKey string

// AdminSubjectCtxKey carries the authenticated admin subject through the
// request context once the auth middleware has verified the bearer token.
const AdminSubjectCtxKey ctxKey = "af-adminSubject"
