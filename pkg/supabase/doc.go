// Package supabase is a small client for the Supabase Auth (GoTrue) REST API.
//
// It covers what a server-rendered front-end needs: password sign-in,
// refresh-token rotation, sign-out, user lookup, JWKS and health. Every
// request carries the project's anon key in the "apikey" header; calls made
// on behalf of a user also send the user's access token as a bearer token.
//
//	client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
//	sess, err := client.SignInWithPassword(ctx, email, password)
//	var apiErr *supabase.APIError
//	if errors.As(err, &apiErr) && apiErr.IsInvalidCredentials() {
//	    // show "wrong email or password"
//	}
package supabase
