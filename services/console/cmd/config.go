package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/services/console/internal/config"
)

func (c *cli) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Управление конфигурацией",
		Long: `Команды для управления конфигурацией консоли:
просмотр, изменение отдельных значений и создание файла по умолчанию.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Показать конфигурацию",
		Long:  "Показывает действующие значения с учетом файла, окружения и флагов",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleConfigShow(cmd, args)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Изменить значение",
		Long: fmt.Sprintf(`Изменяет одно значение в файле конфигурации.
Доступные ключи: %v`, config.Keys()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleConfigSet(cmd, args)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Инициализировать конфигурацию",
		Long:  "Создать файл конфигурации с настройками по умолчанию",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleConfigInit(cmd, args)
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "перезаписать существующий файл")

	configCmd.AddCommand(showCmd, setCmd, initCmd)
	return configCmd
}

func configValues(cfg *config.Config) map[string]string {
	return map[string]string{
		config.KeyBaseURL:       cfg.API.BaseURL,
		config.KeyTimeout:       cfg.API.Timeout,
		config.KeyStorage:       cfg.Storage.Backend,
		config.KeyPollInterval:  cfg.Notifications.PollInterval,
		config.KeyOutputFormat:  cfg.Output.Format,
		config.KeyOutputColors:  strconv.FormatBool(cfg.Output.Colors),
		config.KeyServiceConfig: cfg.ServiceConfig,
	}
}

func (c *cli) handleConfigShow(cmd *cobra.Command, args []string) error {
	path, err := c.configPath()
	if err != nil {
		return handleError(err, cmd, c.log)
	}
	return render(c, cmd, configView{Path: path, Values: configValues(c.cfg)}, nil)
}

func (c *cli) handleConfigSet(cmd *cobra.Command, args []string) error {
	path, err := c.configPath()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	// Изменяется файл, а не значения, переопределенные окружением или флагами
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return handleError(err, cmd, c.log)
	}
	if err := fileCfg.Set(args[0], args[1]); err != nil {
		return render(c, cmd, configView{}, errors.Wrap(err, errors.ErrValidation, err.Error()))
	}
	if err := fileCfg.Save(); err != nil {
		return handleError(err, cmd, c.log)
	}
	return render(c, cmd, configView{Path: path, Values: configValues(fileCfg)}, nil)
}

func (c *cli) handleConfigInit(cmd *cobra.Command, args []string) error {
	path, err := c.configPath()
	if err != nil {
		return handleError(err, cmd, c.log)
	}
	force, _ := cmd.Flags().GetBool("force")

	cfg, err := config.InitConfig(path, force)
	if err != nil {
		return render(c, cmd, message{}, errors.Wrap(err, errors.ErrConflict, err.Error()))
	}
	return render(c, cmd, message{Message: "Configuración creada en " + cfg.Path}, nil)
}
