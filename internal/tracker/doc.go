// Package tracker - ядро бота: реестр сундуков и планировщик их респавна.
//
// На каждый сундук держится не больше двух таймеров:
//   - респавн (RespawnTime) - переводит сундук в неактивный и шлёт EventRespawned;
//   - предупреждение (RespawnTime - NotificationLead) - только EventNotification,
//     состояние не меняет.
//
// MarkLooted всегда сначала гасит старые таймеры, потом ставит новые.
// Колбэк таймера, который успел стартовать до Stop, узнаёт о своей
// неактуальности по хэндлу и ничего не делает.
//
// Жизненный цикл: New(...) -> Add/Create/MarkLooted/Remove -> Destroy().
// Трекер создаётся явно и передаётся тем, кому нужен; глобального нет.
package tracker
