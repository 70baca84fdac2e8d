// Package bot - “склейка” вокруг tracker и discord, реализующая бота
// для отслеживания сундуков. Бот:
//   - регистрирует slash-команду /chest (create, list, remove, status, looted
//     и скрытую loot) и отвечает на неё embed'ами;
//   - подписывается на события трекера и шлёт в канал сообщения:
//     «залутан», «скоро респавн» (с кнопками) и «респавнулся»;
//   - обрабатывает кнопки «I Got It!» / «Missed It» - каждое сообщение
//     принимает только одно нажатие, после него кнопки гасятся;
//   - (опционально) ищет название сундука в обычных сообщениях чата
//     (LEGACY_TEXT_MATCHING).
//
// Жизненный цикл:
//   - Создать бота через New(cfg, logger).
//   - Start(ctx) - регистрация команд, сундуки из конфига, подключение к Gateway.
//   - Stop() - отключение, остановка таймеров трекера и очереди уведомлений.
//
// Пример:
//
//	b := bot.New(cfg, logger)
//	if err := b.Start(ctx); err != nil { return err }
//	defer b.Stop()
//	<-ctx.Done()
//
// Доставка сообщений идёт через очередь Notifier в отдельной горутине:
// ошибки Discord логируются и не возвращаются в трекер.
package bot
