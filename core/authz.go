package core

// Authorizer decides whether the current principal may act on obj, returning
// a PermissionError when the policy denies it. Services call it inside the
// same transaction as the write it guards, so the decision and the write see
// one consistent state.
type Authorizer func(obj interface{}, exec ...DBExecutor) error
