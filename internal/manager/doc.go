// Package manager issues HTTP-shaped calls for entity repositories.
//
// A Manager owns the connection settings (endpoint and baseline request
// options), the transformer registry and the repository factories. Every
// call goes through the same steps:
//
//  1. merge the per-call options over the baseline options
//  2. fail with ErrMissingURL when no URL is set, and with ErrMissingData
//     when a PUT or PATCH carries no data
//  3. append the criteria to the query string as key=<compact JSON>
//  4. prefix the endpoint
//  5. run RequestTransformer forward over the payload, when there is one
//  6. send through the transport
//  7. run ResponseTransformer in reverse over the response data
//
// Transport errors are returned unmodified.
//
//	m := manager.New(transport.NewHTTP(),
//		manager.WithEndpoint("https://api.example.com"),
//		manager.WithHeader("Authorization", "Bearer "+token),
//	)
//	users, _ := m.RepositoryFor("user", "users")
//	u, err := users.Find(ctx, "42")
package manager
