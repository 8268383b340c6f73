// Package credentials implements the nowauth credential store.
//
// All credentials live in one JSON file (default ~/.config/nowauth/auth.json)
// mapping provider id to a record tagged with a "type" field:
//
//	{
//	  "dev12345": {
//	    "type": "domain-oauth",
//	    "instance": "https://dev12345.service-now.com",
//	    "clientId": "...",
//	    "clientSecret": "...",
//	    "accessToken": "...",
//	    "refreshToken": "...",
//	    "expiresAt": 1735689600000
//	  },
//	  "openai": { "type": "api", "key": "..." }
//	}
//
// Store writes are read-merge-write: the file is re-read, one key is replaced
// or removed, and the whole file is written back with 0600 permissions.
// Records of unknown type are carried through writes untouched.
//
// SecretKeyring optionally keeps OAuth client secrets in the OS keychain.
package credentials
