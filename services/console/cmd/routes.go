package cmd

import (
	"github.com/spf13/cobra"

	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/guard"
)

func (c *cli) newRoutesCmd() *cobra.Command {
	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Маршруты консоли",
		Long: `Команды для просмотра маршрутов, построенных из меню,
и проверки перехода по маршруту охранником навигации.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Список маршрутов",
		Long: `Показывает маршруты, доступные текущему пользователю, и узлы меню
с неизвестным компонентом. С --all показывает все маршруты.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleRoutesList(cmd, args)
		},
	}
	listCmd.Flags().Bool("all", false, "все маршруты без фильтра по ролям")

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Проверить переход",
		Long: `Прогоняет переход через охранник навигации и показывает цепочку
решений вместе со всеми перенаправлениями.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleRoutesCheck(cmd, args)
		},
	}

	routesCmd.AddCommand(listCmd, checkCmd)
	return routesCmd
}

func (c *cli) handleRoutesList(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	_, table, err := a.routeTable(ctx)
	if err != nil {
		return render(c, cmd, routeList{}, err)
	}

	entries := table.Routes
	if all, _ := cmd.Flags().GetBool("all"); !all {
		entries = a.evaluator().Filter(entries)
	}
	return render(c, cmd, routeList{Routes: entries, Unresolved: table.Unresolved}, nil)
}

func (c *cli) handleRoutesCheck(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	titles := guard.TitleFunc(func(title string) {
		c.log.Debug("screen title", logger.String("title", title))
	})
	g, _, err := a.newGuard(ctx, titles)
	if err != nil {
		return render(c, cmd, decisionList(nil), err)
	}

	decisions, err := g.Navigate(ctx, args[0])
	return render(c, cmd, decisionList(decisions), err)
}
