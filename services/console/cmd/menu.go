package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/routes"
)

func (c *cli) newMenuCmd() *cobra.Command {
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Конфигурация меню",
		Long: `Команды для просмотра и замены конфигурации меню, из которой
строятся маршруты консоли.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Показать меню",
		Long: `Показывает действующее меню, его источник (override, remote, default)
и замечания проверки.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleMenuShow(cmd, args)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [file]",
		Short: "Сохранить собственное меню",
		Long: `Проверяет меню из файла (JSON или YAML) и сохраняет его как
локальную настройку. Настройка целиком заменяет встроенное меню.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleMenuSet(cmd, args)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Удалить собственное меню",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleMenuClear(cmd, args)
		},
	}

	publishCmd := &cobra.Command{
		Use:   "publish [file]",
		Short: "Опубликовать меню на сервере",
		Long: `Отправляет меню на сервер как активное. Без файла публикуется
действующее меню.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleMenuPublish(cmd, args)
		},
	}

	menuCmd.AddCommand(showCmd, setCmd, clearCmd, publishCmd)
	return menuCmd
}

// readMenuFile читает и разбирает файл меню
func readMenuFile(path string) ([]domain.MenuNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "no se pudo leer el archivo del menú")
	}
	menu, err := routes.ParseMenu(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "formato de menú inválido")
	}
	return menu, nil
}

func (c *cli) handleMenuShow(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	loaded, err := a.menus.Load(ctx)
	return render(c, cmd, menuView{LoadedMenu: loaded}, err)
}

func (c *cli) handleMenuSet(cmd *cobra.Command, args []string) error {
	menu, err := readMenuFile(args[0])
	if err != nil {
		return render(c, cmd, diagnosticList{}, err)
	}
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	diags, err := a.menus.SaveOverride(ctx, menu)
	return render(c, cmd, diagnosticList{Saved: err == nil, Diagnostics: diags}, err)
}

func (c *cli) handleMenuClear(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	err = a.menus.ClearOverride(ctx)
	return render(c, cmd, message{Message: "Configuración de menú eliminada"}, err)
}

func (c *cli) handleMenuPublish(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	var menu []domain.MenuNode
	if len(args) == 1 {
		if menu, err = readMenuFile(args[0]); err != nil {
			return render(c, cmd, message{}, err)
		}
	} else {
		loaded, err := a.menus.Load(ctx)
		if err != nil {
			return render(c, cmd, message{}, err)
		}
		menu = loaded.Menu
	}

	err = a.menus.Publish(ctx, menu)
	return render(c, cmd, message{Message: "Menú publicado"}, err)
}
