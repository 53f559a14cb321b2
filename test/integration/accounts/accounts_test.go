// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package accounts_test

import (
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/auth"
)

var _ = Describe("Accounts over HTTP backed by PostgreSQL", func() {
	BeforeEach(func() {
		env.truncate()
	})

	Describe("registration", func() {
		It("rejects a second account with the same username", func() {
			register("alice", "s3cret", false)

			out := call(http.MethodPost, "/v1/register", "", api.RegisterRequest{
				Username: "alice", Secret: "other", FirstName: "A", LastName: "B",
			})
			Expect(out.Kind()).To(Equal(auth.KindUserExists))
		})

		It("lets exactly one of many concurrent registrations win", func() {
			const racers = 8
			kinds := make([]auth.Kind, racers)
			var wg sync.WaitGroup
			for i := range racers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					kinds[i] = call(http.MethodPost, "/v1/register", "", api.RegisterRequest{
						Username: "racer", Secret: "pw", FirstName: "R", LastName: "R",
					}).Kind()
				}()
			}
			wg.Wait()

			Expect(kinds).To(ContainElement(auth.KindNone))
			wins := 0
			for _, k := range kinds {
				if k == auth.KindNone {
					wins++
				} else {
					Expect(k).To(Equal(auth.KindUserExists))
				}
			}
			Expect(wins).To(Equal(1))
		})

		It("stores only a salted slow hash of the secret", func() {
			register("bob", "plaintext-secret", false)
			register("carol", "plaintext-secret", false)

			rows, err := env.pool.Query(env.ctx, "SELECT secret_hash FROM credentials ORDER BY username")
			Expect(err).NotTo(HaveOccurred())
			defer rows.Close()

			var hashes []string
			for rows.Next() {
				var h string
				Expect(rows.Scan(&h)).To(Succeed())
				Expect(h).To(HavePrefix("$argon2id$"))
				Expect(h).NotTo(ContainSubstring("plaintext-secret"))
				hashes = append(hashes, h)
			}
			Expect(rows.Err()).NotTo(HaveOccurred())
			Expect(hashes).To(HaveLen(2))
			Expect(hashes[0]).NotTo(Equal(hashes[1]), "equal secrets hash differently")
		})
	})

	Describe("session lifecycle", func() {
		It("authenticates, validates, renews and logs out", func() {
			register("dave", "pw", false)
			token := login("dave", "pw")

			succeed(call(http.MethodGet, "/v1/token", token, nil), nil)

			var renewed api.TokenResponse
			succeed(call(http.MethodPost, "/v1/token/renew", token, nil), &renewed)
			Expect(renewed.Token).NotTo(Equal(token))
			Expect(renewed.ExpiresIn).To(Equal(int64(auth.RenewTTL / time.Second)))

			Expect(call(http.MethodGet, "/v1/token", token, nil).Kind()).To(Equal(auth.KindTokenNotFound),
				"renewal replaces the old token")

			succeed(call(http.MethodPost, "/v1/logout", renewed.Token, nil), nil)
			Expect(call(http.MethodGet, "/v1/token", renewed.Token, nil).Kind()).To(Equal(auth.KindTokenNotFound))
		})

		It("expires tokens once their lifetime passes", func() {
			register("erin", "pw", false)
			token := login("erin", "pw")

			env.clock.Advance(auth.AuthenticateTTL)
			succeed(call(http.MethodGet, "/v1/token", token, nil), nil)

			env.clock.Advance(time.Second)
			Expect(call(http.MethodGet, "/v1/token", token, nil).Kind()).To(Equal(auth.KindTokenExpired))
		})

		It("rejects wrong secrets and unknown users alike", func() {
			register("frank", "pw", false)

			wrong := call(http.MethodPost, "/v1/authenticate", "", api.AuthenticateRequest{Username: "frank", Secret: "nope"})
			unknown := call(http.MethodPost, "/v1/authenticate", "", api.AuthenticateRequest{Username: "nobody", Secret: "pw"})
			Expect(wrong.Kind()).To(Equal(auth.KindInvalidCredentials))
			Expect(unknown.Kind()).To(Equal(auth.KindInvalidCredentials))
			Expect(wrong.Detail).To(Equal(unknown.Detail))
		})
	})

	Describe("administration", func() {
		var adminToken, userToken string

		BeforeEach(func() {
			register("root", "rootpw", true)
			register("grace", "pw", false)
			adminToken = login("root", "rootpw")
			userToken = login("grace", "pw")
		})

		It("forbids non-admin callers", func() {
			Expect(call(http.MethodPost, "/v1/users/root/disable", userToken, nil).Kind()).To(Equal(auth.KindForbidden))
			Expect(call(http.MethodDelete, "/v1/users/root", userToken, nil).Kind()).To(Equal(auth.KindForbidden))
		})

		It("disables and re-enables an account", func() {
			succeed(call(http.MethodPost, "/v1/users/grace/disable", adminToken, nil), nil)

			Expect(call(http.MethodGet, "/v1/token", userToken, nil).Kind()).To(Equal(auth.KindAccountDisabled))
			Expect(call(http.MethodPost, "/v1/authenticate", "", api.AuthenticateRequest{
				Username: "grace", Secret: "pw",
			}).Kind()).To(Equal(auth.KindAccountDisabled))

			succeed(call(http.MethodPost, "/v1/users/grace/enable", adminToken, nil), nil)
			succeed(call(http.MethodGet, "/v1/token", userToken, nil), nil)
		})

		It("reports the disabled state before expiry", func() {
			succeed(call(http.MethodPost, "/v1/users/grace/disable", adminToken, nil), nil)
			env.clock.Advance(auth.AuthenticateTTL + time.Minute)
			Expect(call(http.MethodGet, "/v1/token", userToken, nil).Kind()).To(Equal(auth.KindAccountDisabled))
		})

		It("deletes the identity together with its credential", func() {
			succeed(call(http.MethodDelete, "/v1/users/grace", adminToken, nil), nil)

			var identities int
			Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM identities").Scan(&identities)).To(Succeed())
			Expect(identities).To(Equal(1))

			Expect(call(http.MethodGet, "/v1/token", userToken, nil).Kind()).To(Equal(auth.KindTokenNotFound))
			Expect(call(http.MethodDelete, "/v1/users/grace", adminToken, nil).Kind()).To(Equal(auth.KindUserNotFound))
		})

		It("resets another account's secret", func() {
			succeed(call(http.MethodPut, "/v1/users/grace/password", adminToken, api.ResetPasswordRequest{NewSecret: "fresh"}), nil)

			Expect(call(http.MethodPost, "/v1/authenticate", "", api.AuthenticateRequest{
				Username: "grace", Secret: "pw",
			}).Kind()).To(Equal(auth.KindInvalidCredentials))
			login("grace", "fresh")

			Expect(call(http.MethodPut, "/v1/users/ghost/password", adminToken, api.ResetPasswordRequest{
				NewSecret: "x",
			}).Kind()).To(Equal(auth.KindUserNotFound))
		})
	})

	Describe("self service", func() {
		It("changes the caller's own secret", func() {
			register("heidi", "old", false)
			token := login("heidi", "old")

			Expect(call(http.MethodPost, "/v1/password", token, api.ChangePasswordRequest{
				Username: "heidi", OldSecret: "wrong", NewSecret: "new",
			}).Kind()).To(Equal(auth.KindInvalidCredentials))

			succeed(call(http.MethodPost, "/v1/password", token, api.ChangePasswordRequest{
				Username: "heidi", OldSecret: "old", NewSecret: "new",
			}), nil)
			login("heidi", "new")
		})

		It("reads and updates the caller's profile", func() {
			email := "ivan@example.com"
			succeed(call(http.MethodPost, "/v1/register", "", api.RegisterRequest{
				Username: "ivan", Secret: "pw", FirstName: "Ivan", LastName: "Petrov", Email: &email,
			}), nil)
			token := login("ivan", "pw")

			var before api.ProfileResponse
			succeed(call(http.MethodGet, "/v1/me", token, nil), &before)
			Expect(before.ID).NotTo(BeEmpty())
			Expect(before.FirstName).To(Equal("Ivan"))
			Expect(before.Email).To(HaveValue(Equal(email)))
			Expect(before.Phone).To(BeNil())

			phone := "+1-555-0100"
			succeed(call(http.MethodPut, "/v1/me", token, api.ProfileRequest{
				FirstName: "Ivan", LastName: "Ivanov", Phone: &phone,
			}), nil)

			var after api.ProfileResponse
			succeed(call(http.MethodGet, "/v1/me", token, nil), &after)
			Expect(after.ID).To(Equal(before.ID))
			Expect(after.LastName).To(Equal("Ivanov"))
			Expect(after.Email).To(BeNil(), "profile updates overwrite every field")
			Expect(after.Phone).To(HaveValue(Equal(phone)))
		})
	})

	It("reports the store as reachable", func() {
		var st api.StatusResponse
		succeed(call(http.MethodGet, "/status", "", nil), &st)
		Expect(st.Store).To(Equal(api.StoreOK))
		Expect(st.Version).To(Equal("integration"))
	})
})
