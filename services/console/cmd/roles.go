package cmd

import (
	"github.com/spf13/cobra"
)

func (c *cli) newRolesCmd() *cobra.Command {
	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "Каталог ролей",
		Long:  `Команды для просмотра каталога ролей платформы.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Список ролей",
		Long: `Загружает каталог ролей с сервера и сохраняет его в кэше сессии.
С флагом --cached показывает последний сохраненный каталог без запроса.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleRolesList(cmd, args)
		},
	}
	listCmd.Flags().Bool("cached", false, "показать кэш без запроса к серверу")

	rolesCmd.AddCommand(listCmd)
	return rolesCmd
}

func (c *cli) handleRolesList(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	if cached, _ := cmd.Flags().GetBool("cached"); cached {
		return render(c, cmd, roleList(a.auth.CachedRoles()), nil)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	roles, err := a.auth.FetchRoles(ctx)
	return render(c, cmd, roleList(roles), err)
}
