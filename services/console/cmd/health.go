package cmd

import (
	"github.com/spf13/cobra"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/services/console/internal/output"
)

func (c *cli) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Проверить состояние компонентов",
		Long:  `Проверяет хранилище состояния и доступность API. Неисправный компонент дает ненулевой код выхода.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleHealth(cmd, args)
		},
	}
}

func (c *cli) handleHealth(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	status := a.healthChecker().Check(ctx)
	view := healthView{HealthStatus: status}
	if !status.Healthy() {
		if c.format != output.FormatTable {
			return render(c, cmd, view, errors.New(errors.ErrNetwork, "componentes no disponibles"))
		}
		if err := render(c, cmd, view, nil); err != nil {
			return err
		}
		return handleError(errors.New(errors.ErrNetwork, "componentes no disponibles"), cmd, c.log)
	}
	return render(c, cmd, view, nil)
}
