package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/health"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/notification"
	"NexusPlatform/services/console/internal/session"
)

func (c *cli) newNotificationsCmd() *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notificaciones", "notif"},
		Short:   "Управление уведомлениями",
		Long: `Команды для работы с уведомлениями: просмотр, счетчик непрочитанных,
отметка о прочтении, создание, изменение, удаление и фоновое наблюдение.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Список уведомлений",
		Long:  `Показывает уведомления, видимые текущему пользователю, по важности.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationsList(cmd, args)
		},
	}
	listCmd.Flags().Bool("unread", false, "только непрочитанные")
	listCmd.Flags().String("nivel", "", "фильтр по уровню (urgente, alerta, informativa)")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Показать уведомление",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationShow(cmd, args)
		},
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Счетчик непрочитанных",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationCount(cmd, args)
		},
	}

	readCmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Отметить уведомление прочитанным",
		Long:  `Создает квитанцию о прочтении. Повторная отметка не меняет счетчик.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationRead(cmd, args)
		},
	}

	readAllCmd := &cobra.Command{
		Use:   "read-all",
		Short: "Отметить все прочитанными",
		Long:  `Отмечает все непрочитанные уведомления. Ошибки отдельных отметок не прерывают операцию.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationReadAll(cmd, args)
		},
	}

	receiptsCmd := &cobra.Command{
		Use:   "receipts",
		Short: "Квитанции о прочтении",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationReceipts(cmd, args)
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Создать уведомление",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationCreate(cmd, args)
		},
	}
	addNotificationFlags(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Изменить уведомление",
		Long:  `Изменяет только переданные поля. Статус прочтения не затрагивается.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationUpdate(cmd, args)
		},
	}
	addNotificationFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Удалить уведомление",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationDelete(cmd, args)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Наблюдать за счетчиком непрочитанных",
		Long: `Периодически опрашивает счетчик непрочитанных и печатает изменения.
С --metrics-addr поднимает HTTP сервер с /metrics, /health и /live.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleNotificationWatch(cmd, args)
		},
	}
	watchCmd.Flags().Duration("interval", 0, "интервал опроса (по умолчанию из конфигурации)")
	watchCmd.Flags().Duration("duration", 0, "остановиться через указанное время (0 - до прерывания)")
	watchCmd.Flags().String("metrics-addr", "", "адрес HTTP сервера метрик, например :9464")

	notificationsCmd.AddCommand(listCmd, showCmd, countCmd, readCmd, readAllCmd, receiptsCmd,
		createCmd, updateCmd, deleteCmd, watchCmd)
	return notificationsCmd
}

func addNotificationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("titulo", "t", "", "заголовок (до 150 символов)")
	cmd.Flags().StringP("contenido", "m", "", "текст уведомления")
	cmd.Flags().StringP("nivel", "n", "", "уровень (urgente, alerta, informativa)")
	cmd.Flags().String("tipo", "", "тип (ticket, infraestructura, wiki, sistema, DIRECTOR)")
	cmd.Flags().Bool("global", false, "для всех пользователей")
	cmd.Flags().Bool("director", false, "от директора")
	cmd.Flags().Int64("casino", 0, "ID казино-получателя")
	cmd.Flags().Int64("rol", 0, "ID роли-получателя")
	cmd.Flags().Int64("usuario", 0, "ID пользователя-получателя")
}

// notificationInput собирает тело запроса только из переданных флагов
func notificationInput(cmd *cobra.Command) domain.NotificationInput {
	flags := cmd.Flags()
	var in domain.NotificationInput

	in.Titulo, _ = flags.GetString("titulo")
	in.Contenido, _ = flags.GetString("contenido")
	nivel, _ := flags.GetString("nivel")
	in.Nivel = domain.Nivel(nivel)
	tipo, _ := flags.GetString("tipo")
	in.Tipo = domain.Tipo(tipo)

	if flags.Changed("global") {
		v, _ := flags.GetBool("global")
		in.EsGlobal = &v
	}
	if flags.Changed("director") {
		v, _ := flags.GetBool("director")
		in.EsDelDirector = &v
	}
	if flags.Changed("casino") {
		v, _ := flags.GetInt64("casino")
		in.CasinoDestino = &v
	}
	if flags.Changed("rol") {
		v, _ := flags.GetInt64("rol")
		in.RolDestino = &v
	}
	if flags.Changed("usuario") {
		v, _ := flags.GetInt64("usuario")
		in.UsuarioDestino = &v
	}
	return in
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrValidation, fmt.Sprintf("identificador inválido: %s", arg)).
			WithFields(map[string][]string{"id": {"debe ser un entero positivo"}})
	}
	return id, nil
}

func (c *cli) handleNotificationsList(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	items, err := a.newInbox().Refresh(ctx)
	if err != nil {
		return render(c, cmd, notificationList(nil), err)
	}

	unreadOnly, _ := cmd.Flags().GetBool("unread")
	nivel, _ := cmd.Flags().GetString("nivel")

	filtered := make([]domain.Notification, 0, len(items))
	for _, n := range items {
		if unreadOnly && n.Leido {
			continue
		}
		if nivel != "" && string(n.Nivel) != nivel {
			continue
		}
		filtered = append(filtered, n)
	}
	return render(c, cmd, notificationList(domain.SortByPriority(filtered)), nil)
}

func (c *cli) handleNotificationShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return render(c, cmd, notificationView{}, err)
	}
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	n, err := a.notifications.FetchByID(ctx, id)
	return render(c, cmd, notificationView{Notification: n}, err)
}

func (c *cli) handleNotificationCount(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	inbox := a.newInbox()
	err = inbox.Poll(ctx)
	return render(c, cmd, unreadView{Count: inbox.Unread()}, err)
}

func (c *cli) handleNotificationRead(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return render(c, cmd, notificationView{}, err)
	}
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	inbox := a.newInbox()
	if _, err := inbox.Refresh(ctx); err != nil {
		return render(c, cmd, notificationView{}, err)
	}
	n, err := inbox.MarkRead(ctx, id)
	unread := inbox.Unread()
	return render(c, cmd, notificationView{Notification: n, Unread: &unread}, err)
}

func (c *cli) handleNotificationReadAll(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	inbox := a.newInbox()
	if _, err := inbox.Refresh(ctx); err != nil {
		return render(c, cmd, markAllView{}, err)
	}
	result, err := inbox.MarkAllRead(ctx)
	return render(c, cmd, markAllView{MarkAllResult: result, Unread: inbox.Unread()}, err)
}

func (c *cli) handleNotificationReceipts(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	receipts, err := a.notifications.ListReceipts(ctx)
	return render(c, cmd, receiptList(receipts), err)
}

func (c *cli) handleNotificationCreate(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	n, err := a.notifications.Create(ctx, notificationInput(cmd))
	return render(c, cmd, notificationView{Notification: n}, err)
}

func (c *cli) handleNotificationUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return render(c, cmd, notificationView{}, err)
	}
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	n, err := a.notifications.Update(ctx, id, notificationInput(cmd))
	return render(c, cmd, notificationView{Notification: n}, err)
}

func (c *cli) handleNotificationDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return render(c, cmd, message{}, err)
	}
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	ctx, cancel := c.withTimeout()
	defer cancel()

	err = a.notifications.Delete(ctx, id)
	return render(c, cmd, message{Message: fmt.Sprintf("Notificación %d eliminada", id)}, err)
}

func (c *cli) handleNotificationWatch(cmd *cobra.Command, args []string) error {
	a, err := c.getApp()
	if err != nil {
		return handleError(err, cmd, c.log)
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = c.svc.PollInterval()
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if metricsAddr != "" {
		if c.metrics == nil {
			return handleError(errors.New(errors.ErrInternal, "métricas no inicializadas"), cmd, c.log)
		}
		server := &http.Server{
			Addr:              metricsAddr,
			Handler:           c.watchHandler(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			c.log.Info("starting metrics server", logger.String("addr", metricsAddr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				c.log.Error("metrics server failed", logger.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := server.Shutdown(shutdownCtx); err != nil {
				c.log.Error("metrics server shutdown failed", logger.Error(err))
			}
		}()
	}

	inbox := a.newInbox()
	out := cmd.OutOrStdout()

	var (
		mu   sync.Mutex
		last = -1
	)
	unsubscribe := inbox.Subscribe(func(unread int) {
		mu.Lock()
		defer mu.Unlock()
		if unread == last {
			return
		}
		last = unread
		fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), unreadView{Count: unread})
	})
	defer unsubscribe()

	// Сессия сброшена ответом 401: дальнейший опрос бессмысленен
	unwatch := a.store.Subscribe(func(e session.Event) {
		if e.Type == session.EventInvalidated {
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Sesión no válida, inicia sesión de nuevo")
			cancel()
		}
	})
	defer unwatch()

	poller := notification.NewPoller(inbox, interval, c.log, notification.WithPollMetrics(c.metrics))
	if err := poller.Start(ctx); err != nil {
		return handleError(err, cmd, c.log)
	}
	c.log.Info("watching unread notifications", logger.Duration("interval", interval))

	<-ctx.Done()
	poller.Stop()
	return nil
}

// watchHandler маршруты HTTP сервера наблюдения
func (c *cli) watchHandler(a *app) http.Handler {
	router := mux.NewRouter()
	router.Use(c.metrics.Middleware)
	router.Handle("/metrics", c.metrics.GetHandler()).Methods(http.MethodGet)
	router.Handle("/health", health.Handler(a.healthChecker())).Methods(http.MethodGet)
	router.Handle("/live", health.LiveHandler()).Methods(http.MethodGet)
	return router
}
