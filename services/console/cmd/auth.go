package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/services/console/internal/domain"
)

func (c *cli) newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Управление аутентификацией",
		Long: `Команды для управления сессией пользователя:
вход, выход, обновление токена, статус и принятие лицензии.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login [usuario]",
		Short: "Войти в систему",
		Long: `Выполняет вход по имени пользователя и паролю.
Токен и профиль сохраняются для последующих команд.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleLogin(cmd, args)
		},
	}
	loginCmd.Flags().StringP("username", "u", "", "имя пользователя")
	loginCmd.Flags().StringP("password", "p", "", "пароль (если не задан, читается из stdin)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Выйти из системы",
		Long:  `Удаляет токены, профиль и кэш ролей.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleLogout(cmd, args)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Проверить статус аутентификации",
		Long:  `Показывает сохраненную сессию без обращения к серверу.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleAuthStatus(cmd, args)
		},
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Обновить токен",
		Long:  `Получает новую пару токенов по сохраненному refresh-токену.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleRefresh(cmd, args)
		},
	}

	eulaCmd := &cobra.Command{
		Use:   "accept-eula",
		Short: "Принять лицензионное соглашение",
		Long:  `Отмечает лицензионное соглашение принятым для текущего пользователя.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleAcceptEULA(cmd, args)
		},
	}

	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd, refreshCmd, eulaCmd)
	return authCmd
}

func (c *cli) handleLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	if len(args) > 0 {
		username = args[0]
	}
	password, _ := cmd.Flags().GetString("password")

	if password == "" && username != "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return handleError(errors.New(errors.ErrValidation, "Contraseña es requerido"), cmd, c.log)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	s, err := a.auth.Login(ctx, domain.Credentials{Username: username, Password: password})
	return render(c, cmd, newSessionView(s, a.store.Roles()), err)
}

func (c *cli) handleLogout(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	err = a.auth.Logout(ctx)
	return render(c, cmd, message{Message: "Sesión cerrada"}, err)
}

func (c *cli) handleAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}
	return render(c, cmd, newSessionView(a.store.Session(), a.store.Roles()), nil)
}

func (c *cli) handleRefresh(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	err = a.auth.Refresh(ctx)
	return render(c, cmd, message{Message: "Sesión renovada"}, err)
}

func (c *cli) handleAcceptEULA(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	msg, err := a.auth.AcceptEULA(ctx)
	if msg == "" {
		msg = "Licencia aceptada"
	}
	return render(c, cmd, message{Message: msg}, err)
}
