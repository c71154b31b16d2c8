package flows

import (
	"context"

	"github.com/MrEthical07/goToken/jwt"
)

// VerifyDeps captures verify flow dependencies.
type VerifyDeps struct {
	DecodeAccess func(string) jwt.Result
	Reissue      ReissueDeps
}

// RunVerify decodes an access credential. It performs no I/O.
func RunVerify(token string, deps VerifyDeps) jwt.Result {
	return deps.DecodeAccess(token)
}

// VerifyOrReissueResult is the outcome of [RunVerifyOrReissue]. When Reissued
// is false, Access holds the caller's own valid access credential.
type VerifyOrReissueResult struct {
	Access      jwt.Result
	Reissue     ReissueResult
	AccessToken string
	Reissued    bool
}

// RunVerifyOrReissue verifies accessToken and, only when it is expired, runs
// the reissue flow with refreshToken. An invalid access credential is
// terminal and the refresh credential is never looked at.
func RunVerifyOrReissue(ctx context.Context, accessToken, refreshToken string, deps VerifyDeps) VerifyOrReissueResult {
	res := deps.DecodeAccess(accessToken)
	if res.Status != jwt.StatusExpired {
		return VerifyOrReissueResult{Access: res, AccessToken: accessToken}
	}

	reissue := RunReissue(ctx, refreshToken, deps.Reissue)
	out := VerifyOrReissueResult{Access: res, Reissue: reissue}
	if reissue.Failure != ReissueFailureNone {
		return out
	}

	out.AccessToken = reissue.AccessToken
	out.Reissued = true
	return out
}
