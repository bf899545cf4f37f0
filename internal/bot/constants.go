package bot

const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandStats  = "stats"
	CommandExport = "export"
	CommandStatus = "status"
)

const statusCallbackPrefix = "status"

const helpText = `Команди:
/stats - статистика на запитванията
/export [статус] - xlsx с всички запитвания
/status <ID> <статус> - смяна на статус
Статуси: new, processing, completed, cancelled`
