package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	domain "user-management-service/internal/domain/user"
	"user-management-service/internal/usecase/user"
)

// Messages shown for input the menu refuses. Every other failure is printed
// as "Error: " followed by the error text.
var (
	errEmptyInput    = errors.New("Input cannot be empty!")
	errInvalidNumber = errors.New("Please enter a valid number!")
	errInvalidChoice = errors.New("Invalid choice! Please select between 1 and 5.")
	errInvalidSearch = errors.New("Invalid search choice! Please select between 1 and 4.")
	errNoUsers       = errors.New("No users in the system!")
)

// errEOF ends the loop when the input is exhausted.
var errEOF = errors.New("end of input")

// Menu is the interactive text front end over the user operations.
type Menu struct {
	uc  user.UserUsecase
	in  *bufio.Scanner
	out io.Writer
	log *zap.Logger

	// lines is fed by a reader goroutine so a prompt can give up when the
	// context is canceled while Scan is still blocked.
	lines chan line
	done  chan struct{}
}

// line is one answer read from the input, or the error that ended it.
type line struct {
	text string
	err  error
}

// NewMenu creates a menu reading answers from in and writing prompts to out.
func NewMenu(uc user.UserUsecase, in io.Reader, out io.Writer, log *zap.Logger) *Menu {
	return &Menu{
		uc:  uc,
		in:  bufio.NewScanner(in),
		out: out,
		log: log,
	}
}

// Run shows the menu until the user picks Exit, the input ends or ctx is done.
// Errors from individual actions are printed and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	m.lines = make(chan line, 1)
	m.done = make(chan struct{})
	defer close(m.done)
	go m.readLines()

	for {
		m.displayMenu()

		choice, err := m.readInt(ctx, "Enter your choice (1-5): ")
		if err == nil {
			if choice == 5 {
				m.println("Exiting the system. Goodbye!")
				return nil
			}
			err = m.dispatch(ctx, choice)
		}

		if errors.Is(err, errEOF) || ctx.Err() != nil {
			m.println("")
			m.println("Exiting the system. Goodbye!")
			return nil
		}
		if err != nil {
			m.log.Debug("menu action failed", zap.Int64("choice", choice), zap.Error(err))
			m.println("Error: " + err.Error())
		}
	}
}

// readLines forwards input lines until the input ends or Run returns.
func (m *Menu) readLines() {
	for m.in.Scan() {
		select {
		case m.lines <- line{text: m.in.Text()}:
		case <-m.done:
			return
		}
	}

	err := m.in.Err()
	if err == nil {
		err = errEOF
	}
	select {
	case m.lines <- line{err: err}:
	case <-m.done:
	}
}

func (m *Menu) dispatch(ctx context.Context, choice int64) error {
	switch choice {
	case 1:
		return m.createUser(ctx)
	case 2:
		return m.searchUser(ctx)
	case 3:
		return m.updateUser(ctx)
	case 4:
		return m.deleteUser(ctx)
	default:
		return errInvalidChoice
	}
}

func (m *Menu) displayMenu() {
	m.println("")
	m.println("User Management System")
	m.println("1. Create User")
	m.println("2. Search User")
	m.println("3. Update User")
	m.println("4. Delete User")
	m.println("5. Exit")
}

func (m *Menu) createUser(ctx context.Context) error {
	m.println("")
	m.println("Creating new user:")

	name, err := m.readRequired(ctx, "Enter name: ")
	if err != nil {
		return err
	}
	surname, err := m.readRequired(ctx, "Enter surname: ")
	if err != nil {
		return err
	}
	email, err := m.readRequired(ctx, "Enter email: ")
	if err != nil {
		return err
	}

	created, err := m.uc.CreateUser(ctx, user.CreateUserRequest{Name: name, Surname: surname, Email: email})
	if err != nil {
		return err
	}

	m.println(fmt.Sprintf("User created successfully! User ID: %d", created.ID))
	return nil
}

func (m *Menu) searchUser(ctx context.Context) error {
	all, err := m.uc.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(all.Users) == 0 {
		return errNoUsers
	}

	m.println("")
	m.println("Search user by:")
	m.println("1. ID")
	m.println("2. Email")
	m.println("3. Name")
	m.println("4. Surname")

	choice, err := m.readInt(ctx, "Enter your choice (1-4): ")
	if err != nil {
		return err
	}

	switch choice {
	case 1:
		id, err := m.readInt(ctx, "Enter user ID: ")
		if err != nil {
			return err
		}
		u, err := m.uc.GetUser(ctx, user.GetUserRequest{ID: id})
		if err != nil {
			return err
		}
		m.println("User found: " + format(u))
	case 2:
		email, err := m.readRequired(ctx, "Enter user email: ")
		if err != nil {
			return err
		}
		u, err := m.uc.GetUserByEmail(ctx, user.GetUserByEmailRequest{Email: email})
		if err != nil {
			return err
		}
		m.println("User found: " + format(u))
	case 3:
		return m.searchBy(ctx, domain.FieldName, "Enter user name: ")
	case 4:
		return m.searchBy(ctx, domain.FieldSurname, "Enter user surname: ")
	default:
		return errInvalidSearch
	}
	return nil
}

func (m *Menu) searchBy(ctx context.Context, field domain.Field, prompt string) error {
	value, err := m.readRequired(ctx, prompt)
	if err != nil {
		return err
	}

	resp, err := m.uc.SearchUsers(ctx, user.SearchUsersRequest{Field: field, Value: value})
	if err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		m.println(fmt.Sprintf("No users found with %s: %s", field, value))
		return nil
	}

	m.println(fmt.Sprintf("Users found: %d", len(resp.Users)))
	for i := range resp.Users {
		m.println(format(&resp.Users[i]))
	}
	return nil
}

func (m *Menu) updateUser(ctx context.Context) error {
	id, err := m.readInt(ctx, "Enter user ID to update: ")
	if err != nil {
		return err
	}

	current, err := m.uc.GetUser(ctx, user.GetUserRequest{ID: id})
	if err != nil {
		return err
	}

	m.println("Current user details: " + format(current))
	m.println("")
	m.println("Enter new details (press Enter to keep current value):")

	name, err := m.readOptional(ctx, "Enter new name: ")
	if err != nil {
		return err
	}
	surname, err := m.readOptional(ctx, "Enter new surname: ")
	if err != nil {
		return err
	}
	email, err := m.readOptional(ctx, "Enter new email: ")
	if err != nil {
		return err
	}

	if _, err := m.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:      id,
		Name:    name,
		Surname: surname,
		Email:   email,
		Mode:    user.UpdateModePartial,
	}); err != nil {
		return err
	}

	m.println("User updated successfully!")
	return nil
}

func (m *Menu) deleteUser(ctx context.Context) error {
	id, err := m.readInt(ctx, "Enter user ID to delete: ")
	if err != nil {
		return err
	}

	if _, err := m.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: id}); err != nil {
		return err
	}

	m.println("User deleted successfully!")
	return nil
}

func (m *Menu) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-m.lines:
		if l.err != nil {
			// Later prompts see the same end of input
			m.lines <- l
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

func (m *Menu) readRequired(ctx context.Context, prompt string) (string, error) {
	s, err := m.readLine(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errEmptyInput
	}
	return s, nil
}

func (m *Menu) readOptional(ctx context.Context, prompt string) (string, error) {
	return m.readLine(ctx, prompt)
}

func (m *Menu) readInt(ctx context.Context, prompt string) (int64, error) {
	s, err := m.readLine(ctx, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	return n, nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func format(u *user.User) string {
	return fmt.Sprintf("User{id=%d, name='%s', surname='%s', email='%s'}", u.ID, u.Name, u.Surname, u.Email)
}
