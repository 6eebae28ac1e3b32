package services

import (
	"crypto/tls"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/huangang/caseeval/internal/config"
)

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	if cfg == nil {
		cfg = &config.LDAPConfig{}
	}
	return &LDAPService{config: cfg}
}

func (s *LDAPService) IsEnabled() bool {
	return s.config.Enabled && s.config.Host != ""
}

type LDAPUser struct {
	DN         string
	Username   string
	Email      string
	Nickname   string
	Department string
}

// Authenticate finds the user with the service account and then binds as
// that user to check the password.
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	if !s.IsEnabled() {
		return nil, fmt.Errorf("LDAP is not enabled")
	}
	if password == "" {
		// An empty password would be an unauthenticated bind.
		return nil, fmt.Errorf("password required")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var conn *ldap.Conn
	var err error

	if s.config.UseSSL {
		conn, err = ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: s.config.Host}))
	} else {
		conn, err = ldap.DialURL("ldap://" + addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if s.config.BindDN != "" {
		if err := conn.Bind(s.config.BindDN, s.config.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	searchRequest := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		s.userFilter(username),
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName", "department"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("user not found in LDAP")
	}
	if len(result.Entries) > 1 {
		return nil, fmt.Errorf("multiple users found in LDAP")
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	user := &LDAPUser{
		DN:         entry.DN,
		Username:   entry.GetAttributeValue("uid"),
		Email:      entry.GetAttributeValue("mail"),
		Nickname:   entry.GetAttributeValue("cn"),
		Department: entry.GetAttributeValue("department"),
	}
	// Active Directory
	if user.Username == "" {
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}
	if user.Username == "" {
		user.Username = username
	}

	return user, nil
}

func (s *LDAPService) userFilter(username string) string {
	filter := s.config.UserFilter
	if filter == "" {
		filter = "(uid=%s)"
	}
	return fmt.Sprintf(filter, ldap.EscapeFilter(username))
}
