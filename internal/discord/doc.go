// Package discord - минимальный клиент Discord для бота: Gateway (WebSocket)
// и REST. Умеет ровно то, что нужно боту-напоминалке:
//
//   - подключиться к Gateway, пройти Hello -> Identify (или Resume),
//     держать heartbeat и переподключаться с экспоненциальным backoff;
//   - отдавать наверх INTERACTION_CREATE (slash-команды и кнопки) и
//     MESSAGE_CREATE (для легаси-разбора текста);
//   - через REST отправлять/редактировать сообщения, отвечать на
//     interaction и регистрировать slash-команды гильдии.
//
// События (колбэки полей Gateway):
//   - OnConnecting, OnConnected, OnInteraction, OnMessage, OnDisconnected, OnError.
//
// Колбэки вызываются из горутины чтения: долгую работу уносите в свою горутину.
//
// Пример:
//
//	gw := discord.NewGateway(token, discord.IntentGuilds)
//	gw.OnInteraction = func(i *discord.Interaction) { ... }
//	if err := gw.Connect(ctx); err != nil { log.Fatal(err) }
//	defer gw.Disconnect()
//
//	api := discord.NewREST(token)
//	_, _ = api.CreateMessage(ctx, channelID, &discord.MessageSend{Content: "hi"})
package discord
