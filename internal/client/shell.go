package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const helpText = "Available commands: help, register, login, logout, me, list [search], get <id>, add, edit <id>, delete <id>, exit"

// Shell is the interactive command loop of the client.
type Shell struct {
	api      *API
	sessions *SessionStore
	prompt   *Prompter
	out      io.Writer
}

// NewShell creates a Shell. A stored session, if any, is restored on Run.
func NewShell(api *API, sessions *SessionStore, in io.Reader, out io.Writer) *Shell {
	return &Shell{api: api, sessions: sessions, prompt: NewPrompter(in, out), out: out}
}

// Run reads commands until "exit" or end of input.
func (s *Shell) Run(ctx context.Context) error {
	if sess, ok, err := s.sessions.Load(); err != nil {
		fmt.Fprintln(s.out, "ignoring session file:", err)
	} else if ok {
		s.api.SetToken(sess.Token)
		fmt.Fprintf(s.out, "Welcome back, %s\n", sess.User.Email)
	}

	for {
		line, ok := s.prompt.Line("handmind> ")
		if !ok {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if err := s.exec(ctx, args); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *Shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "register":
		email, password := s.prompt.Credentials()
		var name *string
		if n, _ := s.prompt.Line("Name (optional): "); n != "" {
			name = &n
		}
		resp, err := s.api.Register(ctx, email, password, name)
		if err != nil {
			return err
		}
		return s.remember(resp)
	case "login":
		email, password := s.prompt.Credentials()
		resp, err := s.api.Login(ctx, email, password)
		if err != nil {
			return err
		}
		return s.remember(resp)
	case "logout":
		s.api.SetToken("")
		if err := s.sessions.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Logged out")
	case "me":
		user, err := s.api.Me(ctx)
		if err != nil {
			return err
		}
		return s.print(user)
	case "list":
		modules, err := s.api.ListModules(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if len(modules) == 0 {
			fmt.Fprintln(s.out, "No modules")
			return nil
		}
		for _, m := range modules {
			lock := " "
			if m.IsLocked {
				lock = "L"
			}
			fmt.Fprintf(s.out, "[%s] #%d  level %d  %s\n", lock, m.ID, m.Level, m.Title)
		}
	case "get":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		m, err := s.api.GetModule(ctx, id)
		if err != nil {
			return err
		}
		return s.print(m)
	case "add":
		in, err := s.prompt.NewModule()
		if err != nil {
			return err
		}
		m, err := s.api.CreateModule(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Module #%d created\n", m.ID)
	case "edit":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		in, err := s.prompt.ModulePatch()
		if err != nil {
			return err
		}
		if _, err := s.api.UpdateModule(ctx, id, in); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Module updated")
	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		if err := s.api.DeleteModule(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Module deleted")
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) remember(resp AuthResponse) error {
	if err := s.sessions.Save(Session{Token: resp.Token, User: resp.User}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(s.out, "Logged in as %s\n", resp.User.Email)
	return nil
}

func (s *Shell) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}

func idArg(args []string) (int64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: %s <id>", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
