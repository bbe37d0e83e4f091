package seed

import (
	"bufio"
	"fmt"
	"io"
	"net/mail"
	"strings"
)

// User is one portal account to provision.
type User struct {
	Email string
	Name  string
}

// ParseUsers reads "email,name" lines. Blank lines and lines starting with #
// are skipped. A missing name falls back to the local part of the email.
func ParseUsers(r io.Reader) ([]User, error) {
	scanner := bufio.NewScanner(r)
	var users []User
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		email, name, _ := strings.Cut(line, ",")
		email = strings.ToLower(strings.TrimSpace(email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("line %d: invalid email %q", lineNo, email)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		users = append(users, User{Email: email, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}
